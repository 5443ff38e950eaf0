// Package container provides dependency injection for the ledger-sync
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"propfin/ledger-sync/internal/categorizer"
	"propfin/ledger-sync/internal/config"
	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/connector/accounting"
	"propfin/ledger-sync/internal/connector/bank"
	"propfin/ledger-sync/internal/connector/propertyledger"
	"propfin/ledger-sync/internal/connector/vendorfeed"
	"propfin/ledger-sync/internal/flows"
	"propfin/ledger-sync/internal/ingest"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/push"
	"propfin/ledger-sync/internal/reconcile"
	"propfin/ledger-sync/internal/store"
	"propfin/ledger-sync/internal/taxonomy"
)

// Container holds all application dependencies and provides methods to
// access them. It is immutable after creation; all fields are private and
// reachable only through getters.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	store    *store.MemoryStore
	mappings *taxonomy.MappingStore
	aiClient categorizer.AIClient
	resolver *categorizer.Resolver

	connectors map[models.Platform]connector.Connector
	ledger     *accounting.Connector

	pipeline   *ingest.Pipeline
	pushEngine *push.Engine
	identifier *flows.Identifier
	reconciler *reconcile.Engine
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	txStore := store.NewMemoryStore(filepath.Join(cfg.Data.Directory, "transactions.yaml"), logger)
	mappings := taxonomy.NewMappingStore(filepath.Join(cfg.Data.Directory, "mappings.yaml"), logger)

	var aiClient categorizer.AIClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		client, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		aiClient = client
		logger.Info("AI categorization enabled", logging.F("model", cfg.AI.Model))
	} else {
		logger.Info("AI categorization disabled")
	}

	resolver := categorizer.NewResolver(mappings, aiClient, cfg.AI.ConfidenceThreshold, logger)

	var proxy *connector.EgressProxy
	if cfg.Proxy.Enabled {
		p, err := connector.NewEgressProxy(cfg.Proxy.URL, cfg.Proxy.StatusURL,
			time.Duration(cfg.Sync.RequestTimeout)*time.Second, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure egress proxy: %w", err)
		}
		proxy = p
	}

	timeout := time.Duration(cfg.Sync.RequestTimeout) * time.Second
	retry := connector.DefaultRetryConfig
	if cfg.Sync.RetryMaxAttempts > 0 {
		retry.MaxAttempts = cfg.Sync.RetryMaxAttempts
	}

	ledger := accounting.New(
		cfg.Platforms.Ledger.BaseURL,
		cfg.Platforms.Ledger.APIKey,
		cfg.Platforms.Ledger.BusinessID,
		timeout, retry, logger)

	connectors := map[models.Platform]connector.Connector{
		models.PlatformProperty: propertyledger.New(
			cfg.Platforms.Property.BaseURL, cfg.Platforms.Property.APIKey,
			timeout, retry, logger),
		models.PlatformBank: bank.New(
			cfg.Platforms.Bank.BaseURL, cfg.Platforms.Bank.APIKey,
			proxy, timeout, retry, logger),
		models.PlatformLedger: ledger,
		models.PlatformVendor: vendorfeed.New(cfg.Platforms.VendorFeedDir, logger),
	}

	c := &Container{
		logger:     logger,
		config:     cfg,
		store:      txStore,
		mappings:   mappings,
		aiClient:   aiClient,
		resolver:   resolver,
		connectors: connectors,
		ledger:     ledger,
		pipeline:   ingest.New(txStore, resolver, mappings, cfg.Sync.AccountWorkers, logger),
		pushEngine: push.New(txStore, ledger, mappings, logger),
		identifier: flows.NewIdentifier(flows.DefaultCatalog(), resolver, logger),
		reconciler: reconcile.New(txStore, connectors, logger),
	}

	logger.Info("Container initialized successfully",
		logging.F("connectors", len(connectors)),
		logging.F("ai_enabled", aiClient != nil))
	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the canonical transaction store.
func (c *Container) GetStore() *store.MemoryStore {
	return c.store
}

// GetMappings returns the category mapping store.
func (c *Container) GetMappings() *taxonomy.MappingStore {
	return c.mappings
}

// GetResolver returns the category resolver.
func (c *Container) GetResolver() *categorizer.Resolver {
	return c.resolver
}

// GetConnector returns the connector for one platform.
func (c *Container) GetConnector(platform models.Platform) (connector.Connector, error) {
	conn, ok := c.connectors[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}
	return conn, nil
}

// GetConnectors returns a copy of the connector registry.
func (c *Container) GetConnectors() map[models.Platform]connector.Connector {
	result := make(map[models.Platform]connector.Connector, len(c.connectors))
	for k, v := range c.connectors {
		result[k] = v
	}
	return result
}

// GetPipeline returns the ingestion pipeline.
func (c *Container) GetPipeline() *ingest.Pipeline {
	return c.pipeline
}

// GetPushEngine returns the ledger push engine.
func (c *Container) GetPushEngine() *push.Engine {
	return c.pushEngine
}

// GetIdentifier returns the flow identifier.
func (c *Container) GetIdentifier() *flows.Identifier {
	return c.identifier
}

// GetReconciler returns the reconciliation engine.
func (c *Container) GetReconciler() *reconcile.Engine {
	return c.reconciler
}

// Close persists store state and releases external clients. It should be
// called once when the application exits.
func (c *Container) Close() error {
	var firstErr error

	if err := c.store.Flush(); err != nil {
		c.logger.WithError(err).Error("Failed to flush transaction store")
		firstErr = err
	}
	if err := c.mappings.Save(); err != nil {
		c.logger.WithError(err).Error("Failed to save category mappings")
		if firstErr == nil {
			firstErr = err
		}
	}
	if closer, ok := c.aiClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close AI client")
		}
	}

	c.logger.Info("Container closed")
	return firstErr
}
