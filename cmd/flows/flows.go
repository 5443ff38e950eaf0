// Package flows handles the flow identification command
package flows

import (
	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/internal/flows"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Cmd represents the flows command
var Cmd = &cobra.Command{
	Use:   "flows",
	Short: "Identify the financial flow a transaction belongs to",
	Long: `Match a transaction sketch against the flow catalog (rent collection,
maintenance job, utility payment, ...) and print the best candidate.`,
	Run: flowsFunc,
}

func init() {
	Cmd.Flags().StringVarP(&root.Description, "description", "d", "", "Transaction description")
	Cmd.Flags().StringVarP(&root.Amount, "amount", "a", "0", "Transaction amount (negative for expenses)")
	Cmd.Flags().StringVar(&root.Vendor, "vendor", "", "Vendor or merchant name (optional)")
	Cmd.Flags().StringVar(&root.PropertyID, "property", "", "Property id the transaction is bound to (optional)")
	_ = Cmd.MarkFlagRequired("description")
}

func flowsFunc(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	amount, err := decimal.NewFromString(root.Amount)
	if err != nil {
		root.Log.Fatalf("Invalid amount %q: %v", root.Amount, err)
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

	template := c.GetIdentifier().Identify(ctx, flows.Draft{
		Description: root.Description,
		Amount:      amount,
		Vendor:      root.Vendor,
		PropertyID:  root.PropertyID,
	})
	if template == nil {
		root.Log.Info("No flow matches this transaction")
		return
	}

	root.Log.Infof("Flow: %s (%s)", template.Name, template.ID)
	root.Log.Infof("Category: %s, type: %s", template.Category, template.Type)
	if template.Recurrence != models.RecurrenceNone {
		root.Log.Infof("Recurrence: %s", template.Recurrence)
	}
}
