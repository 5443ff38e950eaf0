// Package sync handles the ingestion commands
package sync

import (
	"fmt"

	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the sync command
var Cmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest transactions from the external platforms",
	Long: `Ingest new transactions from one platform (or all of them) into the
canonical store, categorizing each one on the way in.`,
	Run: syncFunc,
}

func init() {
	Cmd.Flags().StringVarP(&root.PlatformName, "platform", "p", "all", "Platform to sync (property|bank|ledger|vendor|all)")
	Cmd.Flags().BoolVar(&root.Recategorize, "recategorize", false, "Re-run categorization over stored transactions still categorized as other")
}

func syncFunc(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	c, err := root.BuildContainer(ctx)
	if err != nil {
		root.Log.Fatalf("Error initializing application: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.Warnf("Error while shutting down: %v", err)
		}
	}()

	platforms, err := selectPlatforms(root.PlatformName)
	if err != nil {
		root.Log.Fatalf("%v", err)
	}

	conns := make([]connector.Connector, 0, len(platforms))
	for _, platform := range platforms {
		conn, err := c.GetConnector(platform)
		if err != nil {
			root.Log.Fatalf("Error selecting connector: %v", err)
		}
		conns = append(conns, conn)
	}

	pipeline := c.GetPipeline()
	for platform, res := range pipeline.SyncAll(ctx, conns) {
		if res.Err != nil {
			root.Log.Errorf("Sync of %s aborted: %v", platform, res.Err)
			continue
		}
		root.Log.Infof("Synced %s: imported=%d categorized=%d mapped=%d errors=%d",
			platform, res.Summary.Imported, res.Summary.Categorized, res.Summary.Mapped, res.Summary.Errors)
	}

	if root.Recategorize {
		result, err := pipeline.Recategorize(ctx)
		if err != nil {
			root.Log.Fatalf("Error recategorizing transactions: %v", err)
		}
		root.Log.Infof("Recategorized: examined=%d updated=%d errors=%d",
			result.Examined, result.Updated, result.Errors)
	}
}

func selectPlatforms(name string) ([]models.Platform, error) {
	if name == "all" {
		return models.SyncPlatforms, nil
	}
	for _, p := range models.SyncPlatforms {
		if string(p) == name {
			return []models.Platform{p}, nil
		}
	}
	return nil, fmt.Errorf("unknown platform %q", name)
}
