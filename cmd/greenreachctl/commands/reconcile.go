package commands

import (
	"fmt"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/workers"
	"github.com/spf13/cobra"
)

// ReconcileCmd creates the reconcile command
func ReconcileCmd(app *AppContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one applicant mirror reconciliation pass and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := workers.NewReconciler(app.DB, app.Audit, app.Logger, "", timeout)
			rep, err := rc.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nScanned %d volunteers and %d opportunities in %s\n\n",
				rep.Volunteers, rep.Opportunities, rep.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "  missing mirrors:    %d\n", rep.Missing)
			fmt.Fprintf(out, "  orphan mirrors:     %d\n", rep.Orphans)
			fmt.Fprintf(out, "  status mismatches:  %d\n", rep.Mismatches)
			fmt.Fprintf(out, "  dangling entries:   %d\n", rep.Dangling)
			fmt.Fprintf(out, "  repaired:           %d\n", rep.Repaired)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for the pass")
	return cmd
}
