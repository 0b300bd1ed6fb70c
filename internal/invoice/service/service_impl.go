package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	"github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	"github.com/smallbiznis/repairdesk/pkg/db/option"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
	"github.com/smallbiznis/repairdesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Billing *config.BillingConfigHolder
	Repo    domain.Repository
	Rollup  *rollup.Engine
	Audit   auditdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	pages   config.PaginationConfig
	billing *config.BillingConfigHolder
	repo    domain.Repository
	rollup  *rollup.Engine
	audit   auditdomain.Service
	store   repository.Repository[domain.Invoice]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		pages:   p.Config.Pagination,
		billing: p.Billing,
		repo:    p.Repo,
		rollup:  p.Rollup,
		audit:   p.Audit,
		store:   repository.ProvideStore[domain.Invoice](p.DB),
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return s.find(ctx, s.db, invoiceID)
}

func (s *Service) GetByTicket(ctx context.Context, ticketID string) (domain.Invoice, error) {
	id, err := parseID(ticketID)
	if err != nil {
		return domain.Invoice{}, err
	}
	item, err := s.repo.FindByTicket(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidRequest
	}
	pageSize := s.pages.PageSize(req.PageSize)

	items, err := s.store.Find(ctx, &domain.Invoice{Status: req.Status},
		option.ApplyPagination(pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize}),
		option.WithOrder("created_at desc, id desc"),
	)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return domain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

func (s *Service) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Invoice, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	return s.repo.ListOverdue(ctx, s.db, asOf, s.pages.PageSize(limit))
}

func (s *Service) SyncTotal(ctx context.Context, id string) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	var out domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.rollup.SyncInvoiceTotal(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		out = *invoice
		return s.record(ctx, tx, auditdomain.ActionInvoiceTotalSynced, invoice, map[string]any{
			"total": invoice.Total.StringFixed(2),
		})
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice total synced",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("total", out.Total.StringFixed(2)),
	)
	return out, nil
}

func (s *Service) SetTotal(ctx context.Context, id string, total decimal.Decimal) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if total.IsNegative() {
		return domain.Invoice{}, domain.ErrInvalidTotal
	}

	var out domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.rollup.SetInvoiceTotal(ctx, tx, invoiceID, total)
		if err != nil {
			return err
		}
		out = *invoice
		return s.record(ctx, tx, auditdomain.ActionInvoiceTotalSet, invoice, map[string]any{
			"total":      invoice.Total.StringFixed(2),
			"net_amount": invoice.NetAmount.StringFixed(2),
		})
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice total set",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("total", out.Total.StringFixed(2)),
	)
	return out, nil
}

func (s *Service) SetDueDate(ctx context.Context, id string, due time.Time) (domain.Invoice, error) {
	if due.IsZero() {
		return domain.Invoice{}, domain.ErrInvalidRequest
	}
	return s.transition(ctx, id, auditdomain.ActionInvoiceDueDateSet, func(invoice *domain.Invoice, now time.Time) error {
		due := due.UTC()
		invoice.DueDate = &due
		return nil
	})
}

// Issue moves a draft invoice to issued.
func (s *Service) Issue(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, auditdomain.ActionInvoiceIssued, func(invoice *domain.Invoice, now time.Time) error {
		if invoice.Status != domain.InvoiceStatusDraft {
			return domain.ErrInvalidTransition
		}
		invoice.Status = invoice.Status.Next()
		invoice.IssuedAt = &now
		return nil
	})
}

// Send marks a draft or issued invoice as sent to the customer.
func (s *Service) Send(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, auditdomain.ActionInvoiceSent, func(invoice *domain.Invoice, now time.Time) error {
		switch invoice.Status {
		case domain.InvoiceStatusDraft:
			invoice.IssuedAt = &now
		case domain.InvoiceStatusIssued:
		default:
			return domain.ErrInvalidTransition
		}
		invoice.Status = domain.InvoiceStatusSent
		invoice.SentAt = &now
		return nil
	})
}

// Cancel voids an invoice that has not been settled.
func (s *Service) Cancel(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, auditdomain.ActionInvoiceCancelled, func(invoice *domain.Invoice, now time.Time) error {
		if !invoice.Status.IsOpen() {
			return domain.ErrInvalidTransition
		}
		invoice.Status = domain.InvoiceStatusCancelled
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id string, action string, apply func(*domain.Invoice, time.Time) error) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	var out domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.find(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		from := invoice.Status
		now := s.clock.Now()
		if err := apply(&invoice, now); err != nil {
			return err
		}
		invoice.UpdatedAt = now
		if err := s.repo.SaveWorkflow(ctx, tx, &invoice); err != nil {
			return err
		}
		meta := map[string]any{
			"from": string(from),
			"to":   string(invoice.Status),
		}
		if invoice.DueDate != nil {
			meta["due_date"] = invoice.DueDate.Format(time.DateOnly)
		}
		if err := s.record(ctx, tx, action, &invoice, meta); err != nil {
			return err
		}
		if from != invoice.Status {
			s.log.Info("invoice status changed",
				zap.String("invoice_id", invoiceID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(invoice.Status)),
			)
		}
		out = invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return out, nil
}

func (s *Service) Recompute(ctx context.Context, id string) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	var out domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.rollup.RecomputeInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		out = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return out, nil
}

func (s *Service) RecomputeAll(ctx context.Context) (domain.RecomputeReport, error) {
	var report domain.RecomputeReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		report, err = s.rollup.RecomputeAll(ctx, tx)
		return err
	})
	return report, err
}

// Delete removes the invoice with its adjustments and transactions and opens
// a fresh Draft invoice for the same ticket, so a ticket always owns one.
func (s *Service) Delete(ctx context.Context, id string) error {
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	var replacement domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.find(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, invoiceID); err != nil {
			return err
		}

		now := s.clock.Now()
		due := now.AddDate(0, 0, s.billing.Get().InvoiceDueDays)
		replacement = domain.Invoice{
			ID:        s.genID.Generate(),
			TicketID:  invoice.TicketID,
			Status:    domain.InvoiceStatusDraft,
			DueDate:   &due,
			Metadata:  invoice.Metadata,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, &replacement); err != nil {
			return err
		}
		if _, err := s.rollup.RecomputeInvoice(ctx, tx, replacement.ID); err != nil {
			return err
		}

		return s.record(ctx, tx, auditdomain.ActionInvoiceDeleted, &invoice, map[string]any{
			"status":         string(invoice.Status),
			"total":          invoice.Total.StringFixed(2),
			"replacement_id": replacement.ID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("invoice deleted",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("replacement_id", replacement.ID.String()),
	)
	return nil
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, action string, invoice *domain.Invoice, meta map[string]any) error {
	meta["ticket_id"] = invoice.TicketID.String()
	return s.audit.Record(ctx, tx, auditdomain.Entry{
		Action:     action,
		TargetType: auditdomain.TargetInvoice,
		TargetID:   invoice.ID.String(),
		Metadata:   meta,
	})
}

func (s *Service) find(ctx context.Context, db *gorm.DB, id snowflake.ID) (domain.Invoice, error) {
	item, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *item, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
