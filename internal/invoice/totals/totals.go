// Package totals derives an invoice's financial fields from its source rows.
// Every function is pure: callers load the rows and persist the result.
package totals

import (
	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
)

// Scale is the number of decimal places kept in stored amounts.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Billable is a line item that contributes its cost when billable.
type Billable interface {
	BillableCost() decimal.Decimal
}

// Sources are the current child rows an invoice is derived from.
type Sources struct {
	Tasks        []taskdomain.Task
	Orders       []orderdomain.Order
	Adjustments  []adjustmentdomain.Adjustment
	Transactions []transactiondomain.Transaction
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// EffectiveAmount returns the signed amount an adjustment contributes
// against the given subtotal. Fees are positive, every other type negative.
func EffectiveAmount(adj adjustmentdomain.Adjustment, subtotal decimal.Decimal) decimal.Decimal {
	sign := adj.Type.Sign()
	if !adj.Percentage.Valid {
		return adj.Amount.Abs().Mul(sign)
	}
	pct := adj.Percentage.Decimal.Abs()
	if subtotal.IsZero() || pct.IsZero() {
		return decimal.Zero
	}
	return subtotal.Mul(pct).Div(hundred).Mul(sign)
}

func SumBillable[T Billable](items []T) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.BillableCost())
	}
	return sum
}

// HasPercentage reports whether any adjustment is relative to the subtotal.
func HasPercentage(adjustments []adjustmentdomain.Adjustment) bool {
	for _, adj := range adjustments {
		if adj.IsPercentage() {
			return true
		}
	}
	return false
}

// ApplyLineTotals sets task_total, order_total and subtotal.
func ApplyLineTotals(inv *invoicedomain.Invoice, tasks []taskdomain.Task, orders []orderdomain.Order) {
	inv.TaskTotal = round(SumBillable(tasks))
	inv.OrderTotal = round(SumBillable(orders))
	inv.Subtotal = inv.TaskTotal.Add(inv.OrderTotal)
}

// ApplyAdjustments re-sums every adjustment category against the current
// subtotal and refreshes net_amount. Category amounts are stored as
// non-negative magnitudes.
func ApplyAdjustments(inv *invoicedomain.Invoice, adjustments []adjustmentdomain.Adjustment) {
	sums := make(map[adjustmentdomain.AdjustmentType]decimal.Decimal, len(adjustmentdomain.AdjustmentTypes))
	for _, adj := range adjustments {
		sums[adj.Type] = sums[adj.Type].Add(EffectiveAmount(adj, inv.Subtotal))
	}
	for _, t := range adjustmentdomain.AdjustmentTypes {
		inv.SetAdjustmentAmount(t, round(sums[t].Abs()))
	}
	ApplyNet(inv)
}

// ApplyNet folds the stored category amounts into net_amount.
func ApplyNet(inv *invoicedomain.Invoice) {
	net := inv.Subtotal
	for _, t := range adjustmentdomain.AdjustmentTypes {
		net = net.Add(inv.AdjustmentAmount(t).Mul(t.Sign()))
	}
	inv.NetAmount = round(net)
}

// ApplyTransactions sets paid_amount and refunded_amount, then balance and status.
func ApplyTransactions(inv *invoicedomain.Invoice, transactions []transactiondomain.Transaction) {
	paid, refunded := decimal.Zero, decimal.Zero
	for _, txn := range transactions {
		switch txn.Type {
		case transactiondomain.TransactionTypePayment:
			paid = paid.Add(txn.Amount.Abs())
		case transactiondomain.TransactionTypeRefund:
			refunded = refunded.Add(txn.Amount.Abs())
		}
	}
	inv.PaidAmount = round(paid)
	inv.RefundedAmount = round(refunded)
	ApplySettlement(inv)
}

// ApplySettlement recomputes balance from total and derives the status.
func ApplySettlement(inv *invoicedomain.Invoice) {
	inv.Balance = round(inv.Total.Sub(inv.PaidAmount).Add(inv.RefundedAmount))
	inv.Status = DeriveStatus(inv.Status, inv.PaidAmount, inv.RefundedAmount, inv.Balance)
}

// DeriveStatus applies the payment-driven transitions. Workflow states set
// by hand are kept unless money says otherwise; Paid and Refunded fall back
// to Sent once no payment or refund supports them.
func DeriveStatus(current invoicedomain.InvoiceStatus, paid, refunded, balance decimal.Decimal) invoicedomain.InvoiceStatus {
	switch {
	case refunded.IsPositive():
		return invoicedomain.InvoiceStatusRefunded
	case paid.IsPositive() && !balance.IsPositive():
		return invoicedomain.InvoiceStatusPaid
	case paid.IsPositive():
		return invoicedomain.InvoiceStatusSent
	case current == invoicedomain.InvoiceStatusPaid, current == invoicedomain.InvoiceStatusRefunded:
		return invoicedomain.InvoiceStatusSent
	default:
		return current
	}
}

// SyncTotal copies net_amount into total and settles.
func SyncTotal(inv *invoicedomain.Invoice) {
	inv.Total = inv.NetAmount
	ApplySettlement(inv)
}

// SetTotal overrides total with a manual amount and settles.
func SetTotal(inv *invoicedomain.Invoice, total decimal.Decimal) {
	inv.Total = round(total)
	ApplySettlement(inv)
}

// Recompute runs every derivation step in order. Total is left untouched.
func Recompute(inv *invoicedomain.Invoice, src Sources) {
	ApplyLineTotals(inv, src.Tasks, src.Orders)
	ApplyAdjustments(inv, src.Adjustments)
	ApplyTransactions(inv, src.Transactions)
}
