// Command greenreachctl is the operator CLI: mint tokens, run a mirror
// reconciliation pass, and load seed data.
package main

import (
	"os"

	"github.com/dalemusser/greenreach/cmd/greenreachctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:           "greenreachctl",
		Short:         "GreenReach operator CLI",
		Long:          `Operator tasks for a GreenReach deployment: issue bearer tokens, reconcile applicant mirrors, and seed demo data.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	app.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(commands.TokenCmd(app))
	rootCmd.AddCommand(commands.ReconcileCmd(app))
	rootCmd.AddCommand(commands.SeedCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
