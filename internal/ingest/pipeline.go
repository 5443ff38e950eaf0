// Package ingest drives the source connectors: it upserts accounts, applies
// category resolution, persists canonical transactions idempotently, and
// advances per-account sync cursors. Accounts within a platform sync
// concurrently under a bounded worker pool; per-item failures are counted,
// never fatal.
package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"propfin/ledger-sync/internal/categorizer"
	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/store"
	"propfin/ledger-sync/internal/taxonomy"

	"golang.org/x/sync/errgroup"
)

// Summary aggregates one sync run's counters.
type Summary struct {
	Imported    int `json:"imported"`
	Categorized int `json:"categorized"`
	Mapped      int `json:"mapped"`
	Errors      int `json:"errors"`
}

func (s *Summary) add(other Summary) {
	s.Imported += other.Imported
	s.Categorized += other.Categorized
	s.Mapped += other.Mapped
	s.Errors += other.Errors
}

// Pipeline ingests transactions from one or more platforms into the
// canonical store.
type Pipeline struct {
	store    store.Store
	resolver *categorizer.Resolver
	mappings *taxonomy.MappingStore
	workers  int
	logger   logging.Logger
}

// New creates a Pipeline. workers bounds concurrent account syncs within a
// platform; values below 1 select a single worker.
func New(st store.Store, resolver *categorizer.Resolver, mappings *taxonomy.MappingStore, workers int, logger logging.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		store:    st,
		resolver: resolver,
		mappings: mappings,
		workers:  workers,
		logger:   logger,
	}
}

// Sync ingests everything new from one platform. Credential failures abort
// the whole run with an error; everything else degrades to per-item error
// counts in the returned summary.
func (p *Pipeline) Sync(ctx context.Context, conn connector.Connector) (Summary, error) {
	platform := conn.Platform()
	log := p.logger.WithField("platform", platform)

	if err := conn.ValidateCredentials(ctx); err != nil {
		log.WithError(err).Error("Credential validation failed")
		return Summary{}, err
	}

	accounts, err := conn.ListAccounts(ctx)
	if err != nil {
		if connector.IsCredential(err) {
			return Summary{}, err
		}
		log.WithError(err).Error("Failed to list accounts")
		return Summary{Errors: 1}, nil
	}

	var summary Summary

	// A ledger sync doubles as account discovery for the mapping table.
	if platform == models.PlatformLedger {
		summary.Mapped += p.discoverLedgerAccounts(accounts)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, account := range accounts {
		g.Go(func() error {
			acctSummary := p.syncAccount(gctx, conn, account)
			mu.Lock()
			summary.add(acctSummary)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; per-account failures live in the counters.
	_ = g.Wait()

	log.Info("Sync finished",
		logging.F("imported", summary.Imported),
		logging.F("categorized", summary.Categorized),
		logging.F("mapped", summary.Mapped),
		logging.F("errors", summary.Errors))
	return summary, nil
}

// PlatformResult pairs one platform's sync summary with its abort error,
// if any.
type PlatformResult struct {
	Summary Summary
	Err     error
}

// SyncAll syncs several platforms as independent concurrent units of work,
// each with its own connector and cursors. One platform aborting (for
// example on bad credentials) does not stop the others.
func (p *Pipeline) SyncAll(ctx context.Context, conns []connector.Connector) map[models.Platform]PlatformResult {
	var mu sync.Mutex
	results := make(map[models.Platform]PlatformResult, len(conns))

	g, gctx := errgroup.WithContext(ctx)
	for _, conn := range conns {
		g.Go(func() error {
			summary, err := p.Sync(gctx, conn)
			mu.Lock()
			results[conn.Platform()] = PlatformResult{Summary: summary, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// syncAccount ingests one account's new transactions. The cursor advances
// only after the batch it represents was processed, so a failed listing
// never skips data on the next run.
func (p *Pipeline) syncAccount(ctx context.Context, conn connector.Connector, account models.ExternalAccount) Summary {
	platform := conn.Platform()
	log := p.logger.WithFields(
		logging.F("platform", platform),
		logging.F("account", account.ExternalID))

	var summary Summary

	cursor, err := p.store.GetLastSync(ctx, platform, account.ExternalID)
	if err != nil {
		log.WithError(err).Warn("Failed to read sync cursor, fetching full history")
		cursor = time.Time{}
	}

	natives, err := conn.ListTransactions(ctx, account, cursor)
	if err != nil {
		log.WithError(err).Error("Failed to list transactions, skipping account")
		summary.Errors++
		return summary
	}

	maxSeen := cursor
	for _, native := range natives {
		if native.Date.After(maxSeen) {
			maxSeen = native.Date
		}

		result := p.resolver.Resolve(ctx, categorizer.Input{
			Description:    native.Description,
			Amount:         native.Amount,
			Vendor:         native.Vendor,
			SourcePlatform: platform,
			NativeCategory: native.NativeCategory,
			Direction:      native.Direction,
		})
		summary.Categorized++
		if result.Source == categorizer.SourceMapping {
			summary.Mapped++
		}

		// Auto-learn: an accepted AI result teaches the mapping table the
		// platform's native string so the next run resolves it in step 1.
		if result.AIAccepted && native.NativeCategory != "" {
			p.mappings.Upsert(result.Category, platform, native.NativeCategory)
		}

		// Connectors name their raw keys differently; the stable keys are
		// what Recategorize reads back to rebuild the resolver input.
		metadata := make(map[string]string, len(native.Raw)+2)
		for k, v := range native.Raw {
			metadata[k] = v
		}
		if native.Vendor != "" {
			metadata["vendor"] = native.Vendor
		}
		if native.NativeCategory != "" {
			metadata["category_name"] = native.NativeCategory
		}

		tx := models.Transaction{
			Amount:         native.Amount,
			Date:           native.Date,
			Description:    native.Description,
			Category:       result.Category,
			Type:           result.Type,
			PropertyID:     native.Raw["property_id"],
			ExternalID:     native.ID,
			ExternalSource: platform,
			AICategorized:  result.AIAccepted,
			AIConfidence:   result.Confidence,
			Metadata:       metadata,
		}

		if _, err := p.store.Create(ctx, tx); err != nil {
			if err == store.ErrDuplicate {
				// Already ingested on a previous run; success-no-op.
				continue
			}
			log.WithError(err).WithField("external_id", native.ID).
				Warn("Failed to persist transaction, skipping")
			summary.Errors++
			continue
		}
		summary.Imported++
	}

	account.LastSyncedAt = time.Now().UTC()
	if err := p.store.UpsertAccount(ctx, account); err != nil {
		log.WithError(err).Warn("Failed to upsert account")
		summary.Errors++
	}

	if maxSeen.After(cursor) {
		if err := p.store.SetLastSync(ctx, platform, account.ExternalID, maxSeen); err != nil {
			log.WithError(err).Warn("Failed to advance sync cursor")
			summary.Errors++
		}
	}

	return summary
}

// discoverLedgerAccounts caches ledger account ids for canonical categories
// whose name appears in the account name (case-insensitive substring).
// Returns how many entries were newly cached.
func (p *Pipeline) discoverLedgerAccounts(accounts []models.ExternalAccount) int {
	discovered := 0
	for _, account := range accounts {
		name := strings.ToLower(account.Name)
		for _, canonical := range models.Categories {
			if canonical == models.CategoryOther {
				continue
			}
			if strings.Contains(name, string(canonical)) {
				if p.mappings.SetLedgerAccountID(canonical, account.ExternalID) {
					p.logger.Debug("Discovered ledger account for category",
						logging.F("category", canonical),
						logging.F("account_id", account.ExternalID))
					discovered++
				}
				break
			}
		}
	}
	return discovered
}

// RecategorizeResult aggregates a bulk recategorization pass.
type RecategorizeResult struct {
	Examined int `json:"examined"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// Recategorize re-runs the resolution chain over stored transactions still
// categorized "other". This is the only mutation path for categorization
// fields after creation.
func (p *Pipeline) Recategorize(ctx context.Context) (RecategorizeResult, error) {
	var result RecategorizeResult

	candidates, err := p.store.ListByCategory(ctx, models.CategoryOther)
	if err != nil {
		return result, err
	}

	for _, tx := range candidates {
		result.Examined++

		res := p.resolver.Resolve(ctx, categorizer.Input{
			Description:    tx.Description,
			Amount:         tx.Amount,
			Vendor:         tx.Metadata["vendor"],
			SourcePlatform: tx.ExternalSource,
			NativeCategory: tx.Metadata["category_name"],
		})
		if res.Category == models.CategoryOther {
			continue
		}

		err := p.store.UpdateCategorization(ctx, tx.ID, res.Category, res.Type, res.AIAccepted, res.Confidence)
		if err != nil {
			p.logger.WithError(err).WithField("id", tx.ID).Warn("Failed to recategorize transaction")
			result.Errors++
			continue
		}
		result.Updated++
	}

	return result, nil
}
