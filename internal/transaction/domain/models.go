package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypePayment || t == TransactionTypeRefund
}

type Method string

const (
	MethodCash          Method = "cash"
	MethodCard          Method = "card"
	MethodBankTransfer  Method = "bank_transfer"
	MethodMobilePayment Method = "mobile_payment"
	MethodCheck         Method = "check"
	MethodOther         Method = "other"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodMobilePayment, MethodCheck, MethodOther:
		return true
	}
	return false
}

// Transaction is money received from or returned to the customer.
// Amount is always a positive magnitude; Type carries the direction.
type Transaction struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Type      TransactionType `gorm:"type:text;not null" json:"type"`
	Method    Method          `gorm:"type:text;not null;default:'cash'" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Note      string          `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }
