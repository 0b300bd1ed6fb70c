package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"type:text;not null" json:"name"`
	Email               string       `gorm:"type:text" json:"email,omitempty"`
	Phone               string       `gorm:"type:text" json:"phone,omitempty"`
	DevicesCount        int64        `gorm:"not null;default:0" json:"devices_count"`
	TicketsCount        int64        `gorm:"not null;default:0" json:"tickets_count"`
	PendingTicketsCount int64        `gorm:"not null;default:0" json:"pending_tickets_count"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Counters are the denormalized child counts kept on a customer row.
type Counters struct {
	DevicesCount        int64
	TicketsCount        int64
	PendingTicketsCount int64
}
