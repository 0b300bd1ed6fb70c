package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CreateAdjustmentRequest sets either a fixed Amount or a Percentage of the
// invoice subtotal. Type defaults to the reason's type, and when neither
// Amount nor Percentage is given the reason's typical percentage applies.
type CreateAdjustmentRequest struct {
	InvoiceID  string           `json:"invoice_id" validate:"required"`
	Type       AdjustmentType   `json:"type"`
	Reason     Reason           `json:"reason"`
	Amount     *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	Percentage *decimal.Decimal `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	Note       string           `json:"note"`
}

// UpdateAdjustmentRequest switches mode when Amount or Percentage is given:
// Amount makes the adjustment fixed, Percentage makes it relative.
type UpdateAdjustmentRequest struct {
	ID         string           `json:"id" validate:"required"`
	Type       *AdjustmentType  `json:"type"`
	Reason     *Reason          `json:"reason"`
	Amount     *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	Percentage *decimal.Decimal `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	Note       *string          `json:"note"`
}

type Service interface {
	Create(context.Context, CreateAdjustmentRequest) (Adjustment, error)
	Update(context.Context, UpdateAdjustmentRequest) (Adjustment, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Adjustment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Adjustment, error)
}

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidType     = errors.New("invalid_adjustment_type")
	ErrInvalidReason   = errors.New("invalid_adjustment_reason")
	ErrAmbiguousAmount = errors.New("amount_and_percentage_both_set")
	ErrNotFound        = errors.New("not_found")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
)
