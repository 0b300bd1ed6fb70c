package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type UpdateCustomerRequest struct {
	ID    string  `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrHasDevices     = errors.New("customer_has_devices")
)
