package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DeviceType string

const (
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTablet   DeviceType = "tablet"
	DeviceTypeLaptop   DeviceType = "laptop"
	DeviceTypeDesktop  DeviceType = "desktop"
	DeviceTypeConsole  DeviceType = "console"
	DeviceTypeWearable DeviceType = "wearable"
	DeviceTypeOther    DeviceType = "other"
)

func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypePhone, DeviceTypeTablet, DeviceTypeLaptop, DeviceTypeDesktop,
		DeviceTypeConsole, DeviceTypeWearable, DeviceTypeOther:
		return true
	}
	return false
}

type Device struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID          snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Type                DeviceType   `gorm:"type:text;not null;default:'other'" json:"type"`
	Brand               string       `gorm:"type:text" json:"brand,omitempty"`
	Model               string       `gorm:"type:text" json:"model,omitempty"`
	SerialNumber        string       `gorm:"type:text" json:"serial_number,omitempty"`
	TicketsCount        int64        `gorm:"not null;default:0" json:"tickets_count"`
	PendingTicketsCount int64        `gorm:"not null;default:0" json:"pending_tickets_count"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Device) TableName() string { return "devices" }

type Counters struct {
	TicketsCount        int64
	PendingTicketsCount int64
}
