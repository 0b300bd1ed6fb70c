package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	Status    InvoiceStatus
	PageToken string
	PageSize  int
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// RecomputeReport summarises a full rebuild of derived fields.
type RecomputeReport struct {
	Tickets   int `json:"tickets"`
	Invoices  int `json:"invoices"`
	Devices   int `json:"devices"`
	Customers int `json:"customers"`
}

type Service interface {
	GetByID(ctx context.Context, id string) (Invoice, error)
	GetByTicket(ctx context.Context, ticketID string) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	// ListOverdue reports open invoices past their due date with a
	// positive balance.
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)

	// SyncTotal copies the net amount into the total.
	SyncTotal(ctx context.Context, id string) (Invoice, error)
	// SetTotal overrides the total with a manual amount.
	SetTotal(ctx context.Context, id string, total decimal.Decimal) (Invoice, error)
	SetDueDate(ctx context.Context, id string, due time.Time) (Invoice, error)

	Issue(ctx context.Context, id string) (Invoice, error)
	Send(ctx context.Context, id string) (Invoice, error)
	Cancel(ctx context.Context, id string) (Invoice, error)

	Recompute(ctx context.Context, id string) (Invoice, error)
	RecomputeAll(ctx context.Context) (RecomputeReport, error)

	// Delete drops the invoice with its adjustments and transactions and
	// replaces it with a fresh Draft for the same ticket.
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidTotal      = errors.New("invalid_total")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrNotFound          = errors.New("not_found")
	ErrInvoiceExists     = errors.New("invoice_already_exists")
)
