package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	devicedomain "github.com/smallbiznis/repairdesk/internal/device/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	"github.com/smallbiznis/repairdesk/internal/ticket/domain"
	"github.com/smallbiznis/repairdesk/pkg/db/option"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
	"github.com/smallbiznis/repairdesk/pkg/repository"
	"github.com/smallbiznis/repairdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Billing *config.BillingConfigHolder
	Repo    domain.Repository
	Devices devicedomain.Repository
	Invoice invoicedomain.Repository
	Tasks   taskdomain.Repository
	Orders  orderdomain.Repository
	Rollup  *rollup.Engine
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	pages   config.PaginationConfig
	billing *config.BillingConfigHolder
	repo    domain.Repository
	devices devicedomain.Repository
	invoice invoicedomain.Repository
	tasks   taskdomain.Repository
	orders  orderdomain.Repository
	rollup  *rollup.Engine
	store   repository.Repository[domain.Ticket]
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ticket.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		pages:   p.Config.Pagination,
		billing: p.Billing,
		repo:    p.Repo,
		devices: p.Devices,
		invoice: p.Invoice,
		tasks:   p.Tasks,
		orders:  p.Orders,
		rollup:  p.Rollup,
		store:   repository.ProvideStore[domain.Ticket](p.DB),
	}
}

// Create opens a ticket for a device together with its draft invoice.
func (s *Service) Create(ctx context.Context, req domain.CreateTicketRequest) (domain.Ticket, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Struct(req); err != nil {
		return domain.Ticket{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	deviceID, err := parseID(req.DeviceID)
	if err != nil {
		return domain.Ticket{}, err
	}

	now := s.clock.Now()
	var ticket domain.Ticket
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := s.devices.FindByID(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if device == nil {
			return domain.ErrDeviceNotFound
		}

		ticket = domain.Ticket{
			ID:          s.genID.Generate(),
			CustomerID:  device.CustomerID,
			DeviceID:    device.ID,
			Title:       req.Title,
			Description: strings.TrimSpace(req.Description),
			Status:      domain.TicketStatusNew,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &ticket); err != nil {
			return err
		}

		due := now.AddDate(0, 0, s.billing.Get().InvoiceDueDays)
		invoice := invoicedomain.Invoice{
			ID:       s.genID.Generate(),
			TicketID: ticket.ID,
			Status:   invoicedomain.InvoiceStatusDraft,
			DueDate:  &due,
			Metadata: datatypes.JSONMap{
				"customer_id": device.CustomerID.String(),
				"device_id":   device.ID.String(),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.invoice.Insert(ctx, tx, &invoice); err != nil {
			return err
		}

		return s.rollup.TicketChanged(ctx, tx, ticket, rollup.Created())
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.log.Info("ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("device_id", ticket.DeviceID.String()),
	)
	return ticket, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTicketRequest) (domain.Ticket, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Ticket{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return domain.Ticket{}, domain.ErrInvalidStatus
	}

	return s.mutate(ctx, id, func(ticket *domain.Ticket) {
		if req.Title != nil {
			ticket.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			ticket.Description = strings.TrimSpace(*req.Description)
		}
		if req.Status != nil {
			ticket.Status = *req.Status
		}
	})
}

// Advance moves the ticket to its next workflow state.
func (s *Service) Advance(ctx context.Context, id string) (domain.Ticket, error) {
	ticketID, err := parseID(id)
	if err != nil {
		return domain.Ticket{}, err
	}
	return s.mutate(ctx, ticketID, func(ticket *domain.Ticket) {
		ticket.Status = ticket.Status.Next()
	})
}

func (s *Service) mutate(ctx context.Context, id snowflake.ID, apply func(*domain.Ticket)) (domain.Ticket, error) {
	var updated domain.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrNotFound
		}
		before := ticket.Status
		apply(ticket)
		ticket.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, ticket); err != nil {
			return err
		}

		var diff rollup.Differ
		diff.Mark(rollup.FieldStatus, ticket.Status != before)
		if err := s.rollup.TicketChanged(ctx, tx, *ticket, diff.Change()); err != nil {
			return err
		}
		updated = *ticket
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return updated, nil
}

// Delete removes the ticket with its tasks, orders and invoice.
func (s *Service) Delete(ctx context.Context, id string) error {
	ticketID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.repo.FindByID(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrNotFound
		}

		invoice, err := s.invoice.FindByTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if invoice != nil {
			if err := s.invoice.Delete(ctx, tx, invoice.ID); err != nil {
				return err
			}
		}
		if err := s.tasks.DeleteByTicket(ctx, tx, ticketID); err != nil {
			return err
		}
		if err := s.orders.DeleteByTicket(ctx, tx, ticketID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, ticketID); err != nil {
			return err
		}
		return s.rollup.TicketChanged(ctx, tx, *ticket, rollup.Deleted())
	})
	if err != nil {
		return err
	}

	s.log.Info("ticket deleted", zap.String("ticket_id", ticketID.String()))
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	ticketID, err := parseID(id)
	if err != nil {
		return domain.Ticket{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if item == nil {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTicketRequest) (domain.ListTicketResponse, error) {
	pageSize := s.pages.PageSize(req.PageSize)

	query := &domain.Ticket{Status: req.Status}
	if strings.TrimSpace(req.CustomerID) != "" {
		customerID, err := parseID(req.CustomerID)
		if err != nil {
			return domain.ListTicketResponse{}, err
		}
		query.CustomerID = customerID
	}
	if strings.TrimSpace(req.DeviceID) != "" {
		deviceID, err := parseID(req.DeviceID)
		if err != nil {
			return domain.ListTicketResponse{}, err
		}
		query.DeviceID = deviceID
	}

	items, err := s.store.Find(ctx, query,
		option.ApplyPagination(pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize}),
		option.WithOrder("created_at desc, id desc"),
	)
	if err != nil {
		return domain.ListTicketResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(ticket *domain.Ticket) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        ticket.ID.String(),
			CreatedAt: ticket.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	tickets := make([]domain.Ticket, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		tickets = append(tickets, *item)
	}

	return domain.ListTicketResponse{PageInfo: pageInfo, Tickets: tickets}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
