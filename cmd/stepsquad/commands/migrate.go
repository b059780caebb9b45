package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/stepsquad/internal/config"
	"github.com/mmynk/stepsquad/internal/storage/postgres"
)

func migrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if c.cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=postgres; sqlite migrates on open")
			}
			return nil
		},
	}

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.NewMigrator(c.cfg.DatabaseURL, c.logger).Down(cmd.Context(), target)
		},
	}
	down.Flags().Int64Var(&target, "to", 0, "target version to roll back to")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.NewMigrator(c.cfg.DatabaseURL, c.logger).Up(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.NewMigrator(c.cfg.DatabaseURL, c.logger).Status(cmd.Context())
			},
		},
		down,
	)
	return cmd
}
