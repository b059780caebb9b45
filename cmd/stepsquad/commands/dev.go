package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/stepsquad/internal/auth"
	"github.com/mmynk/stepsquad/internal/models"
)

// tokenCmd mints a caller token for local development.
func tokenCmd(c *cli) *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewJWTManager(c.cfg.JWTSecret, ttl).Generate(args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func userCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local user directory",
	}

	var avatar string
	add := &cobra.Command{
		Use:   "add <user-id> <display-name>",
		Short: "Add or update a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()

			user := &models.User{ID: args[0], DisplayName: args[1], AvatarURL: avatar}
			if err := store.CreateUser(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s saved.\n", user.ID)
			return nil
		},
	}
	add.Flags().StringVar(&avatar, "avatar", "", "avatar URL")

	cmd.AddCommand(add)
	return cmd
}

func stepsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Record step counts",
	}

	var distance float64
	record := &cobra.Command{
		Use:   "record <user-id> <YYYY-MM-DD> <steps>",
		Short: "Record one user's steps for one day, replacing any earlier value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.ParseInLocation(models.DateLayout, args[1], c.cfg.Location)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[1], err)
			}
			steps, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || steps < 0 {
				return fmt.Errorf("steps must be a non-negative integer, got %q", args[2])
			}

			store, err := c.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()

			entry := models.StepEntry{UserID: args[0], Date: date, Steps: steps, DistanceMeters: distance}
			if err := store.RecordSteps(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d steps for %s on %s.\n", steps, entry.UserID, args[1])
			return nil
		},
	}
	record.Flags().Float64Var(&distance, "distance", 0, "distance in meters")

	cmd.AddCommand(record)
	return cmd
}
