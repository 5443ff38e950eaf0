package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propfin/ledger-sync/internal/config"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.AI.ConfidenceThreshold = 0.70
	cfg.Sync.AccountWorkers = 2
	cfg.Sync.RequestTimeout = 5
	cfg.Sync.RetryMaxAttempts = 2
	cfg.Data.Directory = t.TempDir()
	cfg.Platforms.Property.BaseURL = "http://property.local"
	cfg.Platforms.Bank.BaseURL = "http://bank.local"
	cfg.Platforms.Ledger.BaseURL = "http://ledger.local"
	cfg.Platforms.Ledger.BusinessID = "biz-1"
	cfg.Platforms.VendorFeedDir = filepath.Join(cfg.Data.Directory, "feeds")
	return cfg
}

func TestNewContainerRejectsNilConfig(t *testing.T) {
	c, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
	assert.Nil(t, c)
}

func TestNewContainerWiresDependencies(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.GetConfig())
	assert.NotNil(t, c.GetStore())
	assert.NotNil(t, c.GetMappings())
	assert.NotNil(t, c.GetResolver())
	assert.NotNil(t, c.GetPipeline())
	assert.NotNil(t, c.GetPushEngine())
	assert.NotNil(t, c.GetIdentifier())
	assert.NotNil(t, c.GetReconciler())

	for _, platform := range []models.Platform{
		models.PlatformProperty,
		models.PlatformBank,
		models.PlatformLedger,
		models.PlatformVendor,
	} {
		conn, err := c.GetConnector(platform)
		require.NoError(t, err, "platform %s", platform)
		assert.Equal(t, platform, conn.Platform())
	}

	_, err = c.GetConnector(models.Platform("crypto"))
	assert.Error(t, err)
}

func TestGetConnectorsReturnsCopy(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t))
	require.NoError(t, err)

	connectors := c.GetConnectors()
	require.Len(t, connectors, 4)
	delete(connectors, models.PlatformBank)

	_, err = c.GetConnector(models.PlatformBank)
	assert.NoError(t, err, "registry must not be affected by mutating the copy")
}

func TestClosePersistsStoreState(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)

	_, err = c.GetStore().Create(context.Background(), models.Transaction{
		ExternalID:     "ct-1",
		ExternalSource: models.PlatformBank,
		Amount:         decimal.NewFromInt(-50),
		Date:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:    "Water bill",
		Category:       models.CategoryUtilities,
		Type:           models.TypeExpense,
	})
	require.NoError(t, err)

	require.NoError(t, c.Close())

	_, err = os.Stat(filepath.Join(cfg.Data.Directory, "transactions.yaml"))
	assert.NoError(t, err, "Close flushes the transaction store to disk")
}

func TestNewContainerRejectsInvalidProxyURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Proxy.Enabled = true
	cfg.Proxy.URL = "://not-a-url"

	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
