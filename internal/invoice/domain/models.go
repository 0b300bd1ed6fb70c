// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	"github.com/smallbiznis/repairdesk/internal/progress"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusRefunded  InvoiceStatus = "refunded"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var invoiceStatusTable = progress.Table[InvoiceStatus]{
	InvoiceStatusDraft:     progress.Pending,
	InvoiceStatusIssued:    progress.Pending,
	InvoiceStatusSent:      progress.Pending,
	InvoiceStatusPaid:      progress.Complete,
	InvoiceStatusRefunded:  progress.Complete,
	InvoiceStatusCancelled: progress.Void,
}

func (s InvoiceStatus) Classify() progress.Classification { return invoiceStatusTable.Of(s) }

func (s InvoiceStatus) Valid() bool {
	_, ok := invoiceStatusTable[s]
	return ok
}

// Next returns the following manual workflow state.
func (s InvoiceStatus) Next() InvoiceStatus {
	switch s {
	case InvoiceStatusDraft:
		return InvoiceStatusIssued
	case InvoiceStatusIssued:
		return InvoiceStatusSent
	default:
		return s
	}
}

// IsOpen reports whether the invoice can still be cancelled.
func (s InvoiceStatus) IsOpen() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusSent:
		return true
	}
	return false
}

// Invoice is the billing record of a ticket. Every amount column except
// Total is derived from the ticket's tasks and orders and the invoice's own
// adjustments and transactions.
type Invoice struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	TicketID           snowflake.ID      `gorm:"not null;uniqueIndex" json:"ticket_id"`
	Status             InvoiceStatus     `gorm:"type:text;not null;default:'draft';index" json:"status"`
	TaskTotal          decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"task_total"`
	OrderTotal         decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"order_total"`
	Subtotal           decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	DiscountAmount     decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	FeeAmount          decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"fee_amount"`
	CompensationAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"compensation_amount"`
	BonusAmount        decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"bonus_amount"`
	NetAmount          decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"net_amount"`
	Total              decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	PaidAmount         decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	RefundedAmount     decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"refunded_amount"`
	Balance            decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	DueDate            *time.Time        `json:"due_date,omitempty"`
	IssuedAt           *time.Time        `json:"issued_at,omitempty"`
	SentAt             *time.Time        `json:"sent_at,omitempty"`
	Metadata           datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// AdjustmentAmount returns the stored magnitude of one adjustment category.
func (i Invoice) AdjustmentAmount(t adjustmentdomain.AdjustmentType) decimal.Decimal {
	switch t {
	case adjustmentdomain.AdjustmentTypeDiscount:
		return i.DiscountAmount
	case adjustmentdomain.AdjustmentTypeFee:
		return i.FeeAmount
	case adjustmentdomain.AdjustmentTypeCompensation:
		return i.CompensationAmount
	case adjustmentdomain.AdjustmentTypeBonus:
		return i.BonusAmount
	}
	return decimal.Zero
}

func (i *Invoice) SetAdjustmentAmount(t adjustmentdomain.AdjustmentType, amount decimal.Decimal) {
	switch t {
	case adjustmentdomain.AdjustmentTypeDiscount:
		i.DiscountAmount = amount
	case adjustmentdomain.AdjustmentTypeFee:
		i.FeeAmount = amount
	case adjustmentdomain.AdjustmentTypeCompensation:
		i.CompensationAmount = amount
	case adjustmentdomain.AdjustmentTypeBonus:
		i.BonusAmount = amount
	}
}
