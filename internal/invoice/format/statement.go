// Package format renders invoices as text statements and PDF documents.
package format

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
)

const dateLayout = "2006-01-02"

type row struct {
	label string
	value string
}

// Statement writes a two-column summary of an invoice's amounts.
func Statement(w io.Writer, inv invoicedomain.Invoice) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	rows := []row{
		{"invoice", inv.ID.String()},
		{"ticket", inv.TicketID.String()},
		{"status", string(inv.Status)},
		{"due", date(inv.DueDate)},
		{"", ""},
		{"tasks", Amount(inv.TaskTotal)},
		{"orders", Amount(inv.OrderTotal)},
		{"subtotal", Amount(inv.Subtotal)},
	}
	for _, t := range adjustmentdomain.AdjustmentTypes {
		rows = append(rows, row{string(t), Signed(inv.AdjustmentAmount(t), t)})
	}
	rows = append(rows, []row{
		{"net", Amount(inv.NetAmount)},
		{"total", Amount(inv.Total)},
		{"paid", Amount(inv.PaidAmount)},
		{"refunded", Amount(inv.RefundedAmount)},
		{"balance", Amount(inv.Balance)},
	}...)

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Amount formats a monetary value with two decimals.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Signed prefixes a category magnitude with the direction it moves the net.
func Signed(d decimal.Decimal, t adjustmentdomain.AdjustmentType) string {
	if d.IsZero() {
		return Amount(d)
	}
	if t.IsAdditive() {
		return "+" + Amount(d)
	}
	return "-" + Amount(d)
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
