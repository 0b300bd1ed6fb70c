package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/smallbiznis/repairdesk/internal/app"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "repairdesk",
	Short: "Repair shop ticketing and invoice maintenance",
	Long: `repairdesk manages the schema and invoice aggregates of a repair shop
database: migrate it, heal denormalized totals, and inspect invoices.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var startTimeout time.Duration

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&startTimeout, "start-timeout", 15*time.Second, "time allowed for dependencies to start")
}

// withApp builds the application graph, populates targets and runs fn
// between start and stop.
func withApp(ctx context.Context, fn func(context.Context) error, opts ...fx.Option) error {
	application := fx.New(app.Options(opts...))
	if err := application.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()

	return fn(auditdomain.WithActor(ctx, auditdomain.ActorTypeCLI, os.Getenv("USER")))
}
