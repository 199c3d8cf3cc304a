package main

import (
	"fmt"

	"github.com/nssmahe/portal/business/sdk/migrate"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/spf13/cobra"
)

func newMigrateCommand(log *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	run := func(fn func(cmd *cobra.Command, m *migrate.Manager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqldb.StatusCheck(cmd.Context(), db); err != nil {
				return fmt.Errorf("status check database: %w", err)
			}

			return fn(cmd, migrate.NewManager(log, db))
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: run(func(cmd *cobra.Command, m *migrate.Manager) error {
			if err := m.Up(cmd.Context()); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations complete")
			return nil
		}),
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		RunE: run(func(cmd *cobra.Command, m *migrate.Manager) error {
			if err := m.Down(cmd.Context()); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rollback complete")
			return nil
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List the applied migrations",
		RunE: run(func(cmd *cobra.Command, m *migrate.Manager) error {
			applied, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		}),
	}

	cmd.AddCommand(up, down, status)

	return cmd
}
