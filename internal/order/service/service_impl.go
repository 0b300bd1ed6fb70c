package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/order/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	ticketdomain "github.com/smallbiznis/repairdesk/internal/ticket/domain"
	"github.com/smallbiznis/repairdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Tickets ticketdomain.Repository
	Rollup  *rollup.Engine
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tickets ticketdomain.Repository
	rollup  *rollup.Engine
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("order.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		tickets: p.Tickets,
		rollup:  p.Rollup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return domain.Order{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	ticketID, err := parseID(req.TicketID)
	if err != nil {
		return domain.Order{}, err
	}
	if req.Type == "" {
		req.Type = domain.OrderTypePart
	}
	if !req.Type.Valid() {
		return domain.Order{}, domain.ErrInvalidType
	}
	if req.Status == "" {
		req.Status = domain.OrderStatusNew
	}
	if !req.Status.Valid() {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	if req.Cost.IsNegative() {
		return domain.Order{}, domain.ErrInvalidCost
	}

	billable := true
	if req.IsBillable != nil {
		billable = *req.IsBillable
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:         s.genID.Generate(),
		TicketID:   ticketID,
		Name:       req.Name,
		Supplier:   strings.TrimSpace(req.Supplier),
		Type:       req.Type,
		Status:     req.Status,
		Cost:       req.Cost.Round(2),
		IsBillable: billable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.Normalize()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.tickets.FindByID(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrTicketNotFound
		}
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		return s.rollup.OrderChanged(ctx, tx, ticketID, rollup.Created())
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("ticket_id", ticketID.String()),
	)
	return order, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateOrderRequest) (domain.Order, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Order{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if req.Type != nil && !req.Type.Valid() {
		return domain.Order{}, domain.ErrInvalidType
	}
	if req.Status != nil && !req.Status.Valid() {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		return domain.Order{}, domain.ErrInvalidCost
	}

	return s.mutate(ctx, id, func(order *domain.Order) {
		if req.Name != nil {
			order.Name = strings.TrimSpace(*req.Name)
		}
		if req.Supplier != nil {
			order.Supplier = strings.TrimSpace(*req.Supplier)
		}
		if req.Type != nil {
			order.Type = *req.Type
		}
		if req.Status != nil {
			order.Status = *req.Status
		}
		if req.Cost != nil {
			order.Cost = req.Cost.Round(2)
		}
		if req.IsBillable != nil {
			order.IsBillable = *req.IsBillable
		}
	})
}

// Advance moves the order along new, shipped, received.
func (s *Service) Advance(ctx context.Context, id string) (domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return domain.Order{}, err
	}
	return s.mutate(ctx, orderID, func(order *domain.Order) {
		order.Status = order.Status.Next()
	})
}

func (s *Service) mutate(ctx context.Context, id snowflake.ID, apply func(*domain.Order)) (domain.Order, error) {
	var updated domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		before := *order
		apply(order)
		order.Normalize()
		order.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}

		var diff rollup.Differ
		diff.Mark(rollup.FieldStatus, order.Status != before.Status).
			Mark(rollup.FieldCost, !order.Cost.Equal(before.Cost)).
			Mark(rollup.FieldIsBillable, order.IsBillable != before.IsBillable)
		if err := s.rollup.OrderChanged(ctx, tx, order.TicketID, diff.Change()); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	orderID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, orderID); err != nil {
			return err
		}
		return s.rollup.OrderChanged(ctx, tx, order.TicketID, rollup.Deleted())
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return domain.Order{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if item == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListByTicket(ctx context.Context, ticketID string) ([]domain.Order, error) {
	id, err := parseID(ticketID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTicket(ctx, s.db, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
