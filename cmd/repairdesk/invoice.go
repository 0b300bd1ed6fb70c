package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	adjustmentdomain "github.com/smallbiznis/repairdesk/internal/adjustment/domain"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	"github.com/smallbiznis/repairdesk/internal/config"
	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/format"
	transactiondomain "github.com/smallbiznis/repairdesk/internal/transaction/domain"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var invoiceID string

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Inspect and move invoices through their workflow",
}

// invoiceAction runs op against the --invoice flag and prints the result.
func invoiceAction(use, short string, op func(context.Context, invoicedomain.Service, []string) (invoicedomain.Invoice, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc invoicedomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				inv, err := op(ctx, svc, args)
				if err != nil {
					return err
				}
				return format.Statement(cmd.OutOrStdout(), inv)
			}, fx.Populate(&svc))
		},
	}
}

func init() {
	show := invoiceAction("show", "Print an invoice statement", func(ctx context.Context, svc invoicedomain.Service, _ []string) (invoicedomain.Invoice, error) {
		return svc.GetByID(ctx, invoiceID)
	})
	issue := invoiceAction("issue", "Issue a draft invoice", func(ctx context.Context, svc invoicedomain.Service, _ []string) (invoicedomain.Invoice, error) {
		return svc.Issue(ctx, invoiceID)
	})
	send := invoiceAction("send", "Mark an invoice as sent", func(ctx context.Context, svc invoicedomain.Service, _ []string) (invoicedomain.Invoice, error) {
		return svc.Send(ctx, invoiceID)
	})
	cancel := invoiceAction("cancel", "Cancel an open invoice", func(ctx context.Context, svc invoicedomain.Service, _ []string) (invoicedomain.Invoice, error) {
		return svc.Cancel(ctx, invoiceID)
	})
	setTotal := invoiceAction("set-total AMOUNT", "Override an invoice total", func(ctx context.Context, svc invoicedomain.Service, args []string) (invoicedomain.Invoice, error) {
		total, err := decimal.NewFromString(args[0])
		if err != nil {
			return invoicedomain.Invoice{}, fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		return svc.SetTotal(ctx, invoiceID, total)
	})
	setTotal.Args = cobra.ExactArgs(1)
	due := invoiceAction("set-due DATE", "Set the due date (YYYY-MM-DD)", func(ctx context.Context, svc invoicedomain.Service, args []string) (invoicedomain.Invoice, error) {
		day, err := time.Parse(time.DateOnly, args[0])
		if err != nil {
			return invoicedomain.Invoice{}, fmt.Errorf("invalid date %q: %w", args[0], err)
		}
		return svc.SetDueDate(ctx, invoiceID, day)
	})
	due.Args = cobra.ExactArgs(1)

	history := &cobra.Command{
		Use:   "history",
		Short: "List recorded actions on an invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc auditdomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				return printHistory(ctx, cmd, svc)
			}, fx.Populate(&svc))
		},
	}

	pdfCmd.Flags().StringVar(&pdfOut, "out", "invoice.pdf", "output file")
	for _, sub := range []*cobra.Command{show, issue, send, cancel, setTotal, due, history, pdfCmd} {
		sub.Flags().StringVar(&invoiceID, "invoice", "", "invoice ID")
		_ = sub.MarkFlagRequired("invoice")
		invoiceCmd.AddCommand(sub)
	}
	invoiceCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(invoiceCmd)
}

func printHistory(ctx context.Context, cmd *cobra.Command, svc auditdomain.Service) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tACTION\tDETAILS")

	token := ""
	for {
		page, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
			TargetType: auditdomain.TargetInvoice,
			TargetID:   invoiceID,
			Pagination: pagination.Pagination{PageToken: token},
		})
		if err != nil {
			return err
		}
		for _, entry := range page.AuditLogs {
			actor := entry.ActorType
			if entry.ActorID != nil {
				actor += ":" + *entry.ActorID
			}
			details := make([]string, 0, len(entry.Metadata))
			for key, value := range entry.Metadata {
				details = append(details, fmt.Sprintf("%s=%v", key, value))
			}
			sort.Strings(details)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				entry.CreatedAt.Format(time.RFC3339), actor, entry.Action, strings.Join(details, " "))
		}
		if !page.HasMore {
			break
		}
		token = page.NextPageToken
	}
	return w.Flush()
}

var pdfOut string

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Render an invoice as a PDF document",
	RunE: func(cmd *cobra.Command, args []string) error {
		var deps struct {
			fx.In

			Billing      *config.BillingConfigHolder
			Invoices     invoicedomain.Service
			Adjustments  adjustmentdomain.Service
			Transactions transactiondomain.Service
		}
		return withApp(cmd.Context(), func(ctx context.Context) error {
			inv, err := deps.Invoices.GetByID(ctx, invoiceID)
			if err != nil {
				return err
			}
			adjustments, err := deps.Adjustments.ListByInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}
			transactions, err := deps.Transactions.ListByInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}

			out, err := os.Create(pdfOut)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := format.PDF(out, format.Document{
				ShopName:     deps.Billing.Get().ShopName,
				Invoice:      inv,
				Adjustments:  adjustments,
				Transactions: transactions,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pdfOut)
			return out.Close()
		}, fx.Populate(&deps))
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List open invoices past their due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc invoicedomain.Service
		return withApp(cmd.Context(), func(ctx context.Context) error {
			invoices, err := svc.ListOverdue(ctx, time.Time{}, 0)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INVOICE\tTICKET\tSTATUS\tDUE\tBALANCE")
			for _, inv := range invoices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					inv.ID, inv.TicketID, inv.Status, inv.DueDate.Format(time.DateOnly), format.Amount(inv.Balance))
			}
			return w.Flush()
		}, fx.Populate(&svc))
	},
}
