package main

import (
	"context"
	"fmt"

	"github.com/smallbiznis/repairdesk/internal/migration"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := withApp(cmd.Context(), func(context.Context) error {
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}, migration.Module)
		return err
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
