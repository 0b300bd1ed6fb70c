package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem ActorType = "system"
	ActorTypeCLI    ActorType = "cli"
	ActorTypeUser   ActorType = "user"
)

const (
	TargetInvoice = "invoice"
)

const (
	ActionInvoiceIssued      = "invoice.issued"
	ActionInvoiceSent        = "invoice.sent"
	ActionInvoiceCancelled   = "invoice.cancelled"
	ActionInvoiceDueDateSet  = "invoice.due_date_set"
	ActionInvoiceTotalSynced = "invoice.total_synced"
	ActionInvoiceTotalSet    = "invoice.total_set"
	ActionInvoiceDeleted     = "invoice.deleted"
)

// AuditLog is an append-only record of an operator action on a financial
// record.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType  string            `gorm:"type:varchar(32);not null" json:"actor_type"`
	ActorID    *string           `gorm:"type:varchar(128)" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:varchar(64);not null;index" json:"action"`
	TargetType string            `gorm:"type:varchar(32);not null;index:idx_audit_logs_target" json:"target_type"`
	TargetID   *string           `gorm:"type:varchar(64);index:idx_audit_logs_target" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor positions a listing after the given row.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
