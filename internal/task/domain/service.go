package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateTaskRequest struct {
	TicketID    string          `json:"ticket_id" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Type        TaskType        `json:"type"`
	Status      TaskStatus      `json:"status"`
	Cost        decimal.Decimal `json:"cost"`
	IsBillable  *bool           `json:"is_billable"`
}

type UpdateTaskRequest struct {
	ID          string           `json:"id" validate:"required"`
	Description *string          `json:"description" validate:"omitempty,min=1"`
	Type        *TaskType        `json:"type"`
	Status      *TaskStatus      `json:"status"`
	Cost        *decimal.Decimal `json:"cost"`
	IsBillable  *bool            `json:"is_billable"`
}

type Service interface {
	Create(context.Context, CreateTaskRequest) (Task, error)
	Update(context.Context, UpdateTaskRequest) (Task, error)
	Advance(ctx context.Context, id string) (Task, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Task, error)
	ListByTicket(ctx context.Context, ticketID string) ([]Task, error)
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidType    = errors.New("invalid_task_type")
	ErrInvalidStatus  = errors.New("invalid_task_status")
	ErrInvalidCost    = errors.New("invalid_cost")
	ErrNotFound       = errors.New("not_found")
	ErrTicketNotFound = errors.New("ticket_not_found")
)
