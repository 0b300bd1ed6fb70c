package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
)

type CreateDeviceRequest struct {
	CustomerID   string     `json:"customer_id" validate:"required"`
	Type         DeviceType `json:"type"`
	Brand        string     `json:"brand" validate:"max=120"`
	Model        string     `json:"model" validate:"max=120"`
	SerialNumber string     `json:"serial_number" validate:"max=120"`
}

type UpdateDeviceRequest struct {
	ID           string      `json:"id" validate:"required"`
	Type         *DeviceType `json:"type"`
	Brand        *string     `json:"brand" validate:"omitempty,max=120"`
	Model        *string     `json:"model" validate:"omitempty,max=120"`
	SerialNumber *string     `json:"serial_number" validate:"omitempty,max=120"`
}

type ListDeviceRequest struct {
	CustomerID string
	PageToken  string
	PageSize   int
}

type ListDeviceResponse struct {
	pagination.PageInfo
	Devices []Device `json:"devices"`
}

type Service interface {
	Create(context.Context, CreateDeviceRequest) (Device, error)
	Update(context.Context, UpdateDeviceRequest) (Device, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Device, error)
	List(context.Context, ListDeviceRequest) (ListDeviceResponse, error)
}

var (
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidType      = errors.New("invalid_device_type")
	ErrNotFound         = errors.New("not_found")
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrHasTickets       = errors.New("device_has_tickets")
)
