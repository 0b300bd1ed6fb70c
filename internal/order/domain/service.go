package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	TicketID   string          `json:"ticket_id" validate:"required"`
	Name       string          `json:"name" validate:"required,max=255"`
	Supplier   string          `json:"supplier" validate:"max=255"`
	Type       OrderType       `json:"type"`
	Status     OrderStatus     `json:"status"`
	Cost       decimal.Decimal `json:"cost"`
	IsBillable *bool           `json:"is_billable"`
}

type UpdateOrderRequest struct {
	ID         string           `json:"id" validate:"required"`
	Name       *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Supplier   *string          `json:"supplier" validate:"omitempty,max=255"`
	Type       *OrderType       `json:"type"`
	Status     *OrderStatus     `json:"status"`
	Cost       *decimal.Decimal `json:"cost"`
	IsBillable *bool            `json:"is_billable"`
}

type Service interface {
	Create(context.Context, CreateOrderRequest) (Order, error)
	Update(context.Context, UpdateOrderRequest) (Order, error)
	Advance(ctx context.Context, id string) (Order, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListByTicket(ctx context.Context, ticketID string) ([]Order, error)
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidType    = errors.New("invalid_order_type")
	ErrInvalidStatus  = errors.New("invalid_order_status")
	ErrInvalidCost    = errors.New("invalid_cost")
	ErrNotFound       = errors.New("not_found")
	ErrTicketNotFound = errors.New("ticket_not_found")
)
