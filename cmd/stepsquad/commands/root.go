// Package commands implements the stepsquad command line.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/stepsquad/internal/config"
	"github.com/mmynk/stepsquad/pkg/logging"
)

// cli carries what PersistentPreRunE resolved to the subcommands.
type cli struct {
	cfg      config.Config
	logger   *slog.Logger
	logLevel string
}

// Execute runs the root command with os.Args.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "stepsquad",
		Short:        "Step competition groups and leaderboards",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			c.cfg = cfg
			c.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		serveCmd(c),
		migrateCmd(c),
		tokenCmd(c),
		userCmd(c),
		stepsCmd(c),
	)
	return root
}
