package format

import (
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/totals"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
)

// Document is everything printed on a customer-facing invoice.
type Document struct {
	ShopName     string
	Invoice      invoicedomain.Invoice
	Adjustments  []adjustmentdomain.Adjustment
	Transactions []transactiondomain.Transaction
}

var (
	small      = props.Text{Size: 9}
	smallRight = props.Text{Size: 9, Align: align.Right}
	header     = props.Text{Size: 9, Style: fontstyle.Bold}
	headRight  = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

// PDF renders doc as a single invoice document.
func PDF(w io.Writer, doc Document) error {
	inv := doc.Invoice
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, doc.ShopName, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "Invoice", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+inv.ID.String(), props.Text{Top: 0, Size: 9}),
			text.New("Ticket: "+inv.TicketID.String(), props.Text{Top: 4, Size: 9}),
			text.New("Date of issue: "+date(inv.IssuedAt), props.Text{Top: 8, Size: 9}),
			text.New("Date due: "+date(inv.DueDate), props.Text{Top: 12, Size: 9}),
		),
		text.NewCol(6, "Status: "+string(inv.Status), headRight),
	)

	m.AddRow(8,
		text.NewCol(10, "Work", header),
		text.NewCol(2, "Amount", headRight),
	)
	m.AddRow(6, text.NewCol(10, "Labour", small), text.NewCol(2, Amount(inv.TaskTotal), smallRight))
	m.AddRow(6, text.NewCol(10, "Parts", small), text.NewCol(2, Amount(inv.OrderTotal), smallRight))
	m.AddRow(6, text.NewCol(10, "Subtotal", header), text.NewCol(2, Amount(inv.Subtotal), headRight))

	if len(doc.Adjustments) > 0 {
		m.AddRow(8,
			text.NewCol(6, "Adjustment", header),
			text.NewCol(4, "Rate", header),
			text.NewCol(2, "Amount", headRight),
		)
		for _, adj := range doc.Adjustments {
			rate := "fixed"
			if adj.IsPercentage() {
				rate = adj.Percentage.Decimal.StringFixed(2) + "%"
			}
			label := fmt.Sprintf("%s (%s)", adj.Reason, adj.Type)
			if adj.Note != "" {
				label += ": " + adj.Note
			}
			m.AddRow(6,
				text.NewCol(6, label, small),
				text.NewCol(4, rate, small),
				text.NewCol(2, Signed(totals.EffectiveAmount(adj, inv.Subtotal), adj.Type), smallRight),
			)
		}
	}

	m.AddRow(6, col.New(8), text.NewCol(2, "Net", small), text.NewCol(2, Amount(inv.NetAmount), smallRight))
	m.AddRow(6, col.New(8), text.NewCol(2, "Total", header), text.NewCol(2, Amount(inv.Total), headRight))

	if len(doc.Transactions) > 0 {
		m.AddRow(8,
			text.NewCol(4, "Date", header),
			text.NewCol(3, "Type", header),
			text.NewCol(3, "Method", header),
			text.NewCol(2, "Amount", headRight),
		)
		for _, tx := range doc.Transactions {
			amount := Amount(tx.Amount)
			if tx.Type == transactiondomain.TransactionTypePayment {
				amount = "-" + amount
			}
			m.AddRow(6,
				text.NewCol(4, tx.CreatedAt.Format(dateLayout), small),
				text.NewCol(3, string(tx.Type), small),
				text.NewCol(3, string(tx.Method), small),
				text.NewCol(2, amount, smallRight),
			)
		}
	}

	m.AddRow(6, col.New(8), text.NewCol(2, "Paid", small), text.NewCol(2, Amount(inv.PaidAmount), smallRight))
	m.AddRow(6, col.New(8), text.NewCol(2, "Refunded", small), text.NewCol(2, Amount(inv.RefundedAmount), smallRight))
	m.AddRow(8, col.New(8), text.NewCol(2, "Amount due", header), text.NewCol(2, Amount(inv.Balance), headRight))

	generated, err := m.Generate()
	if err != nil {
		return err
	}
	_, err = w.Write(generated.GetBytes())
	return err
}
