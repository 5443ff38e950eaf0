// Package reconcile handles the cross-platform reconciliation command
package reconcile

import (
	"os"

	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/reconcile"

	"github.com/spf13/cobra"
)

// Cmd represents the reconcile command
var Cmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile canonical transactions against live platform data",
	Long: `Compute per-platform totals for a period and report discrepancies:
transactions present on one side only, and matched pairs whose amounts differ.`,
	Run: reconcileFunc,
}

func init() {
	Cmd.Flags().StringVarP(&root.Format, "format", "f", "json", "Report format (json|csv)")
}

func reconcileFunc(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	from, to, err := root.ParseRange()
	if err != nil {
		root.Log.Fatalf("%v", err)
	}

	c, err := root.BuildContainer(ctx)
	if err != nil {
		root.Log.Fatalf("Error initializing application: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.Warnf("Error while shutting down: %v", err)
		}
	}()

	report, err := c.GetReconciler().Reconcile(ctx, models.Period{Start: from, End: to})
	if err != nil {
		root.Log.Fatalf("Error reconciling: %v", err)
	}

	if err := reconcile.Render(os.Stdout, report, root.Format); err != nil {
		root.Log.Fatalf("Error rendering report: %v", err)
	}

	if report.Errors > 0 {
		root.Log.Warnf("Report is partial: %d platform(s) could not be fetched", report.Errors)
	}
}
