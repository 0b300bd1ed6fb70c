package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	InvoiceID string          `json:"invoice_id" validate:"required"`
	Type      TransactionType `json:"type" validate:"required"`
	Method    Method          `json:"method"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Note      string          `json:"note"`
}

type UpdateTransactionRequest struct {
	ID     string           `json:"id" validate:"required"`
	Type   *TransactionType `json:"type"`
	Method *Method          `json:"method"`
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Note   *string          `json:"note"`
}

type Service interface {
	Create(context.Context, CreateTransactionRequest) (Transaction, error)
	Update(context.Context, UpdateTransactionRequest) (Transaction, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Transaction, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Transaction, error)
}

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidType     = errors.New("invalid_transaction_type")
	ErrInvalidMethod   = errors.New("invalid_transaction_method")
	ErrInvalidAmount   = errors.New("invalid_transaction_amount")
	ErrNotFound        = errors.New("not_found")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
)
