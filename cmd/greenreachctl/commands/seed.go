package commands

import (
	"fmt"
	"os"

	"github.com/dalemusser/greenreach/internal/app/seed"
	"github.com/spf13/cobra"
)

// SeedCmd creates the seed command
func SeedCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load accounts, profiles, and opportunities from a YAML file",
		Long:  `Load accounts, profiles, and opportunities from a YAML file. Existing accounts (by email) and opportunities (by provider and title) are skipped.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer fh.Close()

			f, err := seed.Load(fh)
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), app.DB, f, app.Logger)
			if err != nil {
				return fmt.Errorf("seed failed after %d users: %w", res.Users, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d users, %d provider profiles, %d volunteer profiles, %d opportunities (%d skipped)\n",
				res.Users, res.Providers, res.Volunteers, res.Opportunities, res.Skipped)
			return nil
		},
	}
}
