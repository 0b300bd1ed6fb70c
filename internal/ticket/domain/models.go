package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/repairdesk/internal/progress"
)

// TicketStatus tracks a repair job from intake to pickup.
type TicketStatus string

const (
	TicketStatusNew           TicketStatus = "new"
	TicketStatusInProgress    TicketStatus = "in_progress"
	TicketStatusAwaitingParts TicketStatus = "awaiting_parts"
	TicketStatusResolved      TicketStatus = "resolved"
	TicketStatusClosed        TicketStatus = "closed"
	TicketStatusCancelled     TicketStatus = "cancelled"
)

var ticketStatusTable = progress.Table[TicketStatus]{
	TicketStatusNew:           progress.Pending,
	TicketStatusInProgress:    progress.Pending,
	TicketStatusAwaitingParts: progress.Pending,
	TicketStatusResolved:      progress.Complete,
	TicketStatusClosed:        progress.Complete,
	TicketStatusCancelled:     progress.Void,
}

func (s TicketStatus) Classify() progress.Classification { return ticketStatusTable.Of(s) }

func (s TicketStatus) Valid() bool {
	_, ok := ticketStatusTable[s]
	return ok
}

// Next returns the following workflow state. Terminal states return themselves.
func (s TicketStatus) Next() TicketStatus {
	switch s {
	case TicketStatusNew:
		return TicketStatusInProgress
	case TicketStatusInProgress, TicketStatusAwaitingParts:
		return TicketStatusResolved
	case TicketStatusResolved:
		return TicketStatusClosed
	default:
		return s
	}
}

type Ticket struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID         snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	DeviceID           snowflake.ID    `gorm:"not null;index" json:"device_id"`
	Title              string          `gorm:"type:text;not null" json:"title"`
	Description        string          `gorm:"type:text" json:"description,omitempty"`
	Status             TicketStatus    `gorm:"type:text;not null;default:'new';index" json:"status"`
	TasksCount         int64           `gorm:"not null;default:0" json:"tasks_count"`
	PendingTasksCount  int64           `gorm:"not null;default:0" json:"pending_tasks_count"`
	OrdersCount        int64           `gorm:"not null;default:0" json:"orders_count"`
	PendingOrdersCount int64           `gorm:"not null;default:0" json:"pending_orders_count"`
	TotalCost          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_cost"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }

type Counters struct {
	TasksCount         int64
	PendingTasksCount  int64
	OrdersCount        int64
	PendingOrdersCount int64
}
