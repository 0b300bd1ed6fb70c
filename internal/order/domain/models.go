package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/internal/progress"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatusTable = progress.Table[OrderStatus]{
	OrderStatusNew:       progress.Pending,
	OrderStatusShipped:   progress.Pending,
	OrderStatusReceived:  progress.Complete,
	OrderStatusCancelled: progress.Void,
}

func (s OrderStatus) Classify() progress.Classification { return orderStatusTable.Of(s) }

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusTable[s]
	return ok
}

func (s OrderStatus) Next() OrderStatus {
	switch s {
	case OrderStatusNew:
		return OrderStatusShipped
	case OrderStatusShipped:
		return OrderStatusReceived
	default:
		return s
	}
}

type OrderType string

const (
	OrderTypePart      OrderType = "part"
	OrderTypeAccessory OrderType = "accessory"
	OrderTypeTool      OrderType = "tool"
	OrderTypeOther     OrderType = "other"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypePart, OrderTypeAccessory, OrderTypeTool, OrderTypeOther:
		return true
	}
	return false
}

// Order is a part or material purchased for a ticket.
type Order struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	TicketID   snowflake.ID    `gorm:"not null;index" json:"ticket_id"`
	Name       string          `gorm:"type:text;not null" json:"name"`
	Supplier   string          `gorm:"type:text" json:"supplier,omitempty"`
	Type       OrderType       `gorm:"type:text;not null;default:'part'" json:"type"`
	Status     OrderStatus     `gorm:"type:text;not null;default:'new'" json:"status"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	IsBillable bool            `gorm:"not null" json:"is_billable"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) Normalize() {
	if o.Status == OrderStatusCancelled {
		o.IsBillable = false
	}
}

func (o Order) BillableCost() decimal.Decimal {
	if !o.IsBillable {
		return decimal.Zero
	}
	return o.Cost
}
