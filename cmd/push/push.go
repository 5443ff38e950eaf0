// Package push handles the ledger push command
package push

import (
	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/internal/push"

	"github.com/spf13/cobra"
)

// Cmd represents the push command
var Cmd = &cobra.Command{
	Use:   "push",
	Short: "Push canonical transactions to the accounting ledger",
	Long: `Push stored transactions in a date range to the accounting ledger.
Transactions that originated in the ledger, or that were already pushed,
are skipped unless --include-pushed is set.`,
	Run: pushFunc,
}

func init() {
	Cmd.Flags().BoolVar(&root.IncludePushed, "include-pushed", false, "Re-submit transactions that already carry a ledger id")
}

func pushFunc(cmd *cobra.Command, args []string) {
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

	result, err := c.GetPushEngine().Push(ctx, push.Options{
		From:          from,
		To:            to,
		IncludePushed: root.IncludePushed,
	})
	if err != nil {
		root.Log.Fatalf("Error selecting transactions to push: %v", err)
	}

	root.Log.Infof("Push completed: pushed=%d errors=%d", result.TotalPushed, result.Errors)
}
