package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/rollup"
	"github.com/smallbiznis/repairdesk/internal/transaction/domain"
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
	Repo     domain.Repository
	Invoices invoicedomain.Repository
	Rollup   *rollup.Engine
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	invoices invoicedomain.Repository
	rollup   *rollup.Engine
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("transaction.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		invoices: p.Invoices,
		rollup:   p.Rollup,
	}
}

// Create records a payment or refund and settles the invoice.
func (s *Service) Create(ctx context.Context, req domain.CreateTransactionRequest) (domain.Transaction, error) {
	req.Amount = req.Amount.Round(2)
	if !req.Amount.IsPositive() {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	if err := validation.Struct(req); err != nil {
		return domain.Transaction{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !req.Type.Valid() {
		return domain.Transaction{}, domain.ErrInvalidType
	}
	method := req.Method
	if method == "" {
		method = domain.MethodCash
	}
	if !method.Valid() {
		return domain.Transaction{}, domain.ErrInvalidMethod
	}

	now := s.clock.Now()
	txn := domain.Transaction{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		Type:      req.Type,
		Method:    method,
		Amount:    req.Amount,
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrInvoiceNotFound
		}
		if err := s.repo.Insert(ctx, tx, &txn); err != nil {
			return err
		}
		return s.rollup.TransactionChanged(ctx, tx, invoiceID, rollup.Created())
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.log.Info("transaction recorded",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.StringFixed(2)),
	)
	return txn, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTransactionRequest) (domain.Transaction, error) {
	if req.Amount != nil {
		rounded := req.Amount.Round(2)
		if !rounded.IsPositive() {
			return domain.Transaction{}, domain.ErrInvalidAmount
		}
		req.Amount = &rounded
	}
	if err := validation.Struct(req); err != nil {
		return domain.Transaction{}, errors.Join(domain.ErrInvalidRequest, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if req.Type != nil && !req.Type.Valid() {
		return domain.Transaction{}, domain.ErrInvalidType
	}
	if req.Method != nil && !req.Method.Valid() {
		return domain.Transaction{}, domain.ErrInvalidMethod
	}

	var updated domain.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if txn == nil {
			return domain.ErrNotFound
		}
		before := *txn

		if req.Type != nil {
			txn.Type = *req.Type
		}
		if req.Method != nil {
			txn.Method = *req.Method
		}
		if req.Amount != nil {
			txn.Amount = *req.Amount
		}
		if req.Note != nil {
			txn.Note = strings.TrimSpace(*req.Note)
		}
		txn.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, txn); err != nil {
			return err
		}

		var diff rollup.Differ
		diff.Mark(rollup.FieldAmount, !txn.Amount.Equal(before.Amount)).
			Mark(rollup.FieldType, txn.Type != before.Type)
		if err := s.rollup.TransactionChanged(ctx, tx, txn.InvoiceID, diff.Change()); err != nil {
			return err
		}
		updated = *txn
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	transactionID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := s.repo.FindByID(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if txn == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, transactionID); err != nil {
			return err
		}
		return s.rollup.TransactionChanged(ctx, tx, txn.InvoiceID, rollup.Deleted())
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	transactionID, err := parseID(id)
	if err != nil {
		return domain.Transaction{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, transactionID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if item == nil {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Transaction, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByInvoice(ctx, s.db, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
