package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/repairdesk/internal/order/domain"
	taskdomain "github.com/smallbiznis/repairdesk/internal/task/domain"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func pct(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(Scale), got.StringFixed(Scale), msgAndArgs...)
}

func billableTask(cost string) taskdomain.Task {
	return taskdomain.Task{Status: taskdomain.TaskStatusNew, Cost: dec(cost), IsBillable: true}
}

func billableOrder(cost string) orderdomain.Order {
	return orderdomain.Order{Status: orderdomain.OrderStatusNew, Cost: dec(cost), IsBillable: true}
}

func TestEffectiveAmountFixed(t *testing.T) {
	tests := []struct {
		name   string
		adj    adjustmentdomain.Adjustment
		expect string
	}{
		{"fee adds", adjustmentdomain.Adjustment{Type: adjustmentdomain.AdjustmentTypeFee, Amount: dec("12.50")}, "12.50"},
		{"discount subtracts", adjustmentdomain.Adjustment{Type: adjustmentdomain.AdjustmentTypeDiscount, Amount: dec("12.50")}, "-12.50"},
		{"negative magnitude is coerced", adjustmentdomain.Adjustment{Type: adjustmentdomain.AdjustmentTypeCompensation, Amount: dec("-7")}, "-7"},
		{"bonus subtracts", adjustmentdomain.Adjustment{Type: adjustmentdomain.AdjustmentTypeBonus, Amount: dec("3")}, "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAmount(t, tt.expect, EffectiveAmount(tt.adj, dec("999")))
		})
	}
}

func TestEffectiveAmountPercentage(t *testing.T) {
	adj := adjustmentdomain.Adjustment{
		Type:       adjustmentdomain.AdjustmentTypeDiscount,
		Amount:     dec("500"),
		Percentage: pct("10"),
	}
	assertAmount(t, "-14.50", EffectiveAmount(adj, dec("145")))

	adj.Type = adjustmentdomain.AdjustmentTypeFee
	adj.Percentage = pct("-15")
	assertAmount(t, "30", EffectiveAmount(adj, dec("200")))
}

func TestEffectiveAmountZeroInputs(t *testing.T) {
	for _, typ := range adjustmentdomain.AdjustmentTypes {
		withPct := adjustmentdomain.Adjustment{Type: typ, Percentage: pct("37.5")}
		assert.True(t, EffectiveAmount(withPct, decimal.Zero).IsZero(), "zero subtotal for %s", typ)

		zeroPct := adjustmentdomain.Adjustment{Type: typ, Amount: dec("10"), Percentage: pct("0")}
		assert.True(t, EffectiveAmount(zeroPct, dec("1000")).IsZero(), "zero percentage for %s", typ)
	}
}

func TestEffectiveAmountSign(t *testing.T) {
	subtotals := []string{"0", "0.01", "145", "1060"}
	for _, typ := range adjustmentdomain.AdjustmentTypes {
		for _, subtotal := range subtotals {
			fixed := EffectiveAmount(adjustmentdomain.Adjustment{Type: typ, Amount: dec("5")}, dec(subtotal))
			relative := EffectiveAmount(adjustmentdomain.Adjustment{Type: typ, Percentage: pct("8")}, dec(subtotal))
			if typ.IsAdditive() {
				assert.False(t, fixed.IsNegative(), "%s fixed", typ)
				assert.False(t, relative.IsNegative(), "%s percentage", typ)
			} else {
				assert.False(t, fixed.IsPositive(), "%s fixed", typ)
				assert.False(t, relative.IsPositive(), "%s percentage", typ)
			}
		}
	}
}

func TestSumBillableSkipsNonBillable(t *testing.T) {
	tasks := []taskdomain.Task{
		billableTask("60"),
		billableTask("40"),
		{Cost: dec("25"), IsBillable: false},
	}
	assertAmount(t, "100", SumBillable(tasks))
	assert.True(t, SumBillable([]orderdomain.Order{}).IsZero())
}

func TestZeroStateInvoice(t *testing.T) {
	inv := invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusDraft}
	Recompute(&inv, Sources{})

	assertAmount(t, "0", inv.Subtotal)
	assertAmount(t, "0", inv.NetAmount)
	assertAmount(t, "0", inv.Total)
	assertAmount(t, "0", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
}

func TestFixedAndPercentageMix(t *testing.T) {
	inv := invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusDraft}
	src := Sources{
		Tasks:  []taskdomain.Task{billableTask("60"), billableTask("40")},
		Orders: []orderdomain.Order{billableOrder("45")},
		Adjustments: []adjustmentdomain.Adjustment{{
			Type:       adjustmentdomain.AdjustmentTypeDiscount,
			Reason:     adjustmentdomain.ReasonPromotion,
			Percentage: pct("10"),
		}},
	}
	Recompute(&inv, src)

	assertAmount(t, "100", inv.TaskTotal)
	assertAmount(t, "45", inv.OrderTotal)
	assertAmount(t, "145", inv.Subtotal)
	assertAmount(t, "14.50", inv.DiscountAmount)
	assertAmount(t, "130.50", inv.NetAmount)

	SyncTotal(&inv)
	assertAmount(t, "130.50", inv.Total)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)

	src.Transactions = []transactiondomain.Transaction{{
		Type:   transactiondomain.TransactionTypePayment,
		Method: transactiondomain.MethodCash,
		Amount: dec("130.50"),
	}}
	ApplyTransactions(&inv, src.Transactions)

	assertAmount(t, "130.50", inv.PaidAmount)
	assertAmount(t, "0", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, inv.Status)
}

func TestPercentageFollowsSubtotal(t *testing.T) {
	inv := invoicedomain.Invoice{}
	adjustments := []adjustmentdomain.Adjustment{{
		Type:       adjustmentdomain.AdjustmentTypeDiscount,
		Reason:     adjustmentdomain.ReasonBulkService,
		Percentage: pct("8"),
	}}
	tasks := []taskdomain.Task{billableTask("1060")}

	Recompute(&inv, Sources{Tasks: tasks, Adjustments: adjustments})
	assertAmount(t, "84.80", inv.DiscountAmount)

	tasks = append(tasks, billableTask("140"))
	ApplyLineTotals(&inv, tasks, nil)
	require.True(t, HasPercentage(adjustments))
	ApplyAdjustments(&inv, adjustments)

	assertAmount(t, "1200", inv.Subtotal)
	assertAmount(t, "96.00", inv.DiscountAmount)
	assertAmount(t, "1104", inv.NetAmount)
}

func TestRefundOverridesStatus(t *testing.T) {
	inv := invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusSent, Total: dec("135")}
	ApplyTransactions(&inv, []transactiondomain.Transaction{
		{Type: transactiondomain.TransactionTypePayment, Amount: dec("160")},
		{Type: transactiondomain.TransactionTypeRefund, Amount: dec("25")},
	})

	assertAmount(t, "160", inv.PaidAmount)
	assertAmount(t, "25", inv.RefundedAmount)
	assertAmount(t, "0", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusRefunded, inv.Status)
}

func TestCancelledOrderLeavesTotals(t *testing.T) {
	order := billableOrder("50")
	orders := []orderdomain.Order{billableOrder("20"), order}
	inv := invoicedomain.Invoice{}
	ApplyLineTotals(&inv, nil, orders)
	assertAmount(t, "70", inv.OrderTotal)

	orders[1].Status = orderdomain.OrderStatusCancelled
	orders[1].Normalize()
	assert.False(t, orders[1].IsBillable)

	ApplyLineTotals(&inv, nil, orders)
	assertAmount(t, "20", inv.OrderTotal)
}

func TestNetFoldsEverySign(t *testing.T) {
	inv := invoicedomain.Invoice{}
	Recompute(&inv, Sources{
		Tasks: []taskdomain.Task{billableTask("200")},
		Adjustments: []adjustmentdomain.Adjustment{
			{Type: adjustmentdomain.AdjustmentTypeDiscount, Amount: dec("10")},
			{Type: adjustmentdomain.AdjustmentTypeFee, Percentage: pct("15")},
			{Type: adjustmentdomain.AdjustmentTypeCompensation, Amount: dec("5")},
			{Type: adjustmentdomain.AdjustmentTypeBonus, Amount: dec("2.25")},
			{Type: adjustmentdomain.AdjustmentTypeDiscount, Percentage: pct("2.5")},
		},
	})

	assertAmount(t, "15", inv.DiscountAmount)
	assertAmount(t, "30", inv.FeeAmount)
	assertAmount(t, "5", inv.CompensationAmount)
	assertAmount(t, "2.25", inv.BonusAmount)
	assertAmount(t, "207.75", inv.NetAmount)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	src := Sources{
		Tasks:  []taskdomain.Task{billableTask("33.33"), billableTask("66.67")},
		Orders: []orderdomain.Order{billableOrder("10.10")},
		Adjustments: []adjustmentdomain.Adjustment{
			{Type: adjustmentdomain.AdjustmentTypeDiscount, Percentage: pct("7")},
			{Type: adjustmentdomain.AdjustmentTypeFee, Percentage: pct("3.3")},
		},
		Transactions: []transactiondomain.Transaction{
			{Type: transactiondomain.TransactionTypePayment, Amount: dec("50")},
		},
	}
	inv := invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusIssued}
	Recompute(&inv, src)
	SyncTotal(&inv)
	first := inv

	Recompute(&inv, src)
	assert.Equal(t, first, inv)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  invoicedomain.InvoiceStatus
		paid     string
		refunded string
		balance  string
		expect   invoicedomain.InvoiceStatus
	}{
		{"untouched draft", invoicedomain.InvoiceStatusDraft, "0", "0", "100", invoicedomain.InvoiceStatusDraft},
		{"issued stays issued", invoicedomain.InvoiceStatusIssued, "0", "0", "100", invoicedomain.InvoiceStatusIssued},
		{"partial payment", invoicedomain.InvoiceStatusDraft, "40", "0", "60", invoicedomain.InvoiceStatusSent},
		{"fully paid", invoicedomain.InvoiceStatusSent, "100", "0", "0", invoicedomain.InvoiceStatusPaid},
		{"overpaid", invoicedomain.InvoiceStatusSent, "120", "0", "-20", invoicedomain.InvoiceStatusPaid},
		{"refund wins", invoicedomain.InvoiceStatusPaid, "100", "10", "10", invoicedomain.InvoiceStatusRefunded},
		{"paid without payments", invoicedomain.InvoiceStatusPaid, "0", "0", "100", invoicedomain.InvoiceStatusSent},
		{"refunded without refunds", invoicedomain.InvoiceStatusRefunded, "0", "0", "100", invoicedomain.InvoiceStatusSent},
		{"cancelled stays cancelled", invoicedomain.InvoiceStatusCancelled, "0", "0", "100", invoicedomain.InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.current, dec(tt.paid), dec(tt.refunded), dec(tt.balance))
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestSetTotalRounds(t *testing.T) {
	inv := invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusSent, PaidAmount: dec("50")}
	SetTotal(&inv, dec("99.999"))

	assertAmount(t, "100", inv.Total)
	assertAmount(t, "50", inv.Balance)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
}
