// Package classify handles one-off categorization of a transaction sketch
package classify

import (
	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/internal/categorizer"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Cmd represents the classify command
var Cmd = &cobra.Command{
	Use:   "classify",
	Short: "Categorize a single transaction description",
	Long: `Run the category resolution chain (mapping, keyword, AI) over a single
transaction description without storing anything.`,
	Run: classifyFunc,
}

func init() {
	Cmd.Flags().StringVarP(&root.Description, "description", "d", "", "Transaction description")
	Cmd.Flags().StringVarP(&root.Amount, "amount", "a", "0", "Transaction amount (negative for expenses)")
	Cmd.Flags().StringVar(&root.Vendor, "vendor", "", "Vendor or merchant name (optional)")
	Cmd.Flags().StringVarP(&root.PlatformName, "platform", "p", "", "Source platform (optional)")
	Cmd.Flags().StringVar(&root.NativeCategory, "native-category", "", "Platform-native category label (optional)")
	_ = Cmd.MarkFlagRequired("description")
}

func classifyFunc(cmd *cobra.Command, args []string) {
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

	result := c.GetResolver().Resolve(ctx, categorizer.Input{
		Description:    root.Description,
		Amount:         amount,
		Vendor:         root.Vendor,
		SourcePlatform: models.Platform(root.PlatformName),
		NativeCategory: root.NativeCategory,
	})

	root.Log.Infof("Category: %s", result.Category)
	root.Log.Infof("Type: %s", result.Type)
	root.Log.Infof("Source: %s (confidence %.2f)", result.Source, result.Confidence)
}
