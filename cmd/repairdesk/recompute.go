package main

import (
	"context"
	"fmt"

	invoicedomain "github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/format"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var recomputeInvoiceID string

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recalculate denormalized counters and invoice aggregates",
	Long: `Without --invoice every ticket, invoice, device and customer is
recalculated from its children. With --invoice only that invoice is refreshed
and its statement printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc invoicedomain.Service
		return withApp(cmd.Context(), func(ctx context.Context) error {
			if recomputeInvoiceID != "" {
				inv, err := svc.Recompute(ctx, recomputeInvoiceID)
				if err != nil {
					return err
				}
				return format.Statement(cmd.OutOrStdout(), inv)
			}

			report, err := svc.RecomputeAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tickets=%d invoices=%d devices=%d customers=%d\n",
				report.Tickets, report.Invoices, report.Devices, report.Customers)
			return nil
		}, fx.Populate(&svc))
	},
}

var syncTotalInvoiceID string

var syncTotalCmd = &cobra.Command{
	Use:   "sync-total",
	Short: "Copy an invoice's net amount into its total",
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc invoicedomain.Service
		return withApp(cmd.Context(), func(ctx context.Context) error {
			inv, err := svc.SyncTotal(ctx, syncTotalInvoiceID)
			if err != nil {
				return err
			}
			return format.Statement(cmd.OutOrStdout(), inv)
		}, fx.Populate(&svc))
	},
}

func init() {
	recomputeCmd.Flags().StringVar(&recomputeInvoiceID, "invoice", "", "invoice ID to refresh")
	rootCmd.AddCommand(recomputeCmd)

	syncTotalCmd.Flags().StringVar(&syncTotalInvoiceID, "invoice", "", "invoice ID")
	_ = syncTotalCmd.MarkFlagRequired("invoice")
	rootCmd.AddCommand(syncTotalCmd)
}
