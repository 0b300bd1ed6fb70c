package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
)

type CreateTicketRequest struct {
	DeviceID    string `json:"device_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type UpdateTicketRequest struct {
	ID          string        `json:"id" validate:"required"`
	Title       *string       `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string       `json:"description"`
	Status      *TicketStatus `json:"status"`
}

type ListTicketRequest struct {
	CustomerID string
	DeviceID   string
	Status     TicketStatus
	PageToken  string
	PageSize   int
}

type ListTicketResponse struct {
	pagination.PageInfo
	Tickets []Ticket `json:"tickets"`
}

type Service interface {
	Create(context.Context, CreateTicketRequest) (Ticket, error)
	Update(context.Context, UpdateTicketRequest) (Ticket, error)
	Advance(ctx context.Context, id string) (Ticket, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Ticket, error)
	List(context.Context, ListTicketRequest) (ListTicketResponse, error)
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidStatus  = errors.New("invalid_ticket_status")
	ErrNotFound       = errors.New("not_found")
	ErrDeviceNotFound = errors.New("device_not_found")
)
