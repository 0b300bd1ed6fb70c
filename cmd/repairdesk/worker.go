package main

import (
	"github.com/smallbiznis/repairdesk/internal/app"
	"github.com/smallbiznis/repairdesk/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background reconcile and overdue scan loop",
	Long: `worker runs until interrupted. Every SCHEDULER_INTERVAL_SECONDS it
rebuilds all counters and invoice aggregates and logs overdue invoices. Set
REDIS_ADDR when running more than one worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application := fx.New(app.Options(scheduler.Module))
		if err := application.Err(); err != nil {
			return err
		}
		application.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
