package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AdjustmentType selects which invoice category an adjustment lands in.
// Only fees raise the amount due; the rest reduce it.
type AdjustmentType string

const (
	AdjustmentTypeDiscount     AdjustmentType = "discount"
	AdjustmentTypeFee          AdjustmentType = "fee"
	AdjustmentTypeCompensation AdjustmentType = "compensation"
	AdjustmentTypeBonus        AdjustmentType = "bonus"
)

var AdjustmentTypes = []AdjustmentType{
	AdjustmentTypeDiscount,
	AdjustmentTypeFee,
	AdjustmentTypeCompensation,
	AdjustmentTypeBonus,
}

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentTypeDiscount, AdjustmentTypeFee, AdjustmentTypeCompensation, AdjustmentTypeBonus:
		return true
	}
	return false
}

func (t AdjustmentType) IsAdditive() bool {
	return t == AdjustmentTypeFee
}

// Sign is +1 for additive types and -1 otherwise.
func (t AdjustmentType) Sign() decimal.Decimal {
	if t.IsAdditive() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

type Adjustment struct {
	ID         snowflake.ID        `gorm:"primaryKey" json:"id"`
	InvoiceID  snowflake.ID        `gorm:"not null;index" json:"invoice_id"`
	Type       AdjustmentType      `gorm:"type:text;not null" json:"type"`
	Reason     Reason              `gorm:"type:text;not null;default:'other'" json:"reason"`
	Amount     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Percentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"percentage"`
	Note       string              `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Adjustment) TableName() string { return "adjustments" }

// IsPercentage reports whether the amount is derived from the invoice subtotal.
func (a Adjustment) IsPercentage() bool {
	return a.Percentage.Valid
}
