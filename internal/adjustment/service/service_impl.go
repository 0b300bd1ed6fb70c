package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	"github.com/smallbiznis/repairdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Billing  *config.BillingConfigHolder
	Repo     domain.Repository
	Invoices invoicedomain.Repository
	Rollup   *rollup.Engine
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	billing  *config.BillingConfigHolder
	repo     domain.Repository
	invoices invoicedomain.Repository
	rollup   *rollup.Engine
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("adjustment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		billing:  p.Billing,
		repo:     p.Repo,
		invoices: p.Invoices,
		rollup:   p.Rollup,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAdjustmentRequest) (domain.Adjustment, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Adjustment{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Adjustment{}, err
	}
	if req.Amount != nil && req.Percentage != nil {
		return domain.Adjustment{}, domain.ErrAmbiguousAmount
	}

	reason := req.Reason
	if reason == "" {
		reason = domain.ReasonOther
	}
	info, ok := reason.Info()
	if !ok {
		return domain.Adjustment{}, domain.ErrInvalidReason
	}
	adjustmentType := req.Type
	if adjustmentType == "" {
		adjustmentType = info.Type
	}
	if !adjustmentType.Valid() {
		return domain.Adjustment{}, domain.ErrInvalidType
	}

	now := s.clock.Now()
	adjustment := domain.Adjustment{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		Type:      adjustmentType,
		Reason:    reason,
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch {
	case req.Amount != nil:
		adjustment.Amount = req.Amount.Abs().Round(2)
	case req.Percentage != nil:
		adjustment.Percentage = decimal.NewNullDecimal(req.Percentage.Abs().Round(2))
	default:
		adjustment.Percentage = decimal.NewNullDecimal(reason.Suggest(s.billing.Get().ReasonPercentages))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrInvoiceNotFound
		}
		if err := s.repo.Insert(ctx, tx, &adjustment); err != nil {
			return err
		}
		return s.rollup.AdjustmentChanged(ctx, tx, invoiceID, rollup.Created())
	})
	if err != nil {
		return domain.Adjustment{}, err
	}

	s.log.Info("adjustment created",
		zap.String("adjustment_id", adjustment.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("type", string(adjustment.Type)),
		zap.String("reason", string(adjustment.Reason)),
	)
	return adjustment, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAdjustmentRequest) (domain.Adjustment, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Adjustment{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Adjustment{}, err
	}
	if req.Amount != nil && req.Percentage != nil {
		return domain.Adjustment{}, domain.ErrAmbiguousAmount
	}
	if req.Type != nil && !req.Type.Valid() {
		return domain.Adjustment{}, domain.ErrInvalidType
	}
	if req.Reason != nil && !req.Reason.Valid() {
		return domain.Adjustment{}, domain.ErrInvalidReason
	}

	var updated domain.Adjustment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		adjustment, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if adjustment == nil {
			return domain.ErrNotFound
		}
		before := *adjustment

		if req.Type != nil {
			adjustment.Type = *req.Type
		}
		if req.Reason != nil {
			adjustment.Reason = *req.Reason
		}
		if req.Note != nil {
			adjustment.Note = strings.TrimSpace(*req.Note)
		}
		if req.Amount != nil {
			adjustment.Amount = req.Amount.Abs().Round(2)
			adjustment.Percentage = decimal.NullDecimal{}
		}
		if req.Percentage != nil {
			adjustment.Amount = decimal.Zero
			adjustment.Percentage = decimal.NewNullDecimal(req.Percentage.Abs().Round(2))
		}
		adjustment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, adjustment); err != nil {
			return err
		}

		var diff rollup.Differ
		diff.Mark(rollup.FieldAmount, !adjustment.Amount.Equal(before.Amount)).
			Mark(rollup.FieldPercentage, percentageChanged(before.Percentage, adjustment.Percentage)).
			Mark(rollup.FieldType, adjustment.Type != before.Type)
		if err := s.rollup.AdjustmentChanged(ctx, tx, adjustment.InvoiceID, diff.Change()); err != nil {
			return err
		}
		updated = *adjustment
		return nil
	})
	if err != nil {
		return domain.Adjustment{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	adjustmentID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		adjustment, err := s.repo.FindByID(ctx, tx, adjustmentID)
		if err != nil {
			return err
		}
		if adjustment == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, adjustmentID); err != nil {
			return err
		}
		return s.rollup.AdjustmentChanged(ctx, tx, adjustment.InvoiceID, rollup.Deleted())
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Adjustment, error) {
	adjustmentID, err := parseID(id)
	if err != nil {
		return domain.Adjustment{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, adjustmentID)
	if err != nil {
		return domain.Adjustment{}, err
	}
	if item == nil {
		return domain.Adjustment{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Adjustment, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByInvoice(ctx, s.db, id)
}

func percentageChanged(before, after decimal.NullDecimal) bool {
	if before.Valid != after.Valid {
		return true
	}
	return before.Valid && !before.Decimal.Equal(after.Decimal)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
