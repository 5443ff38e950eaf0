// Package push selects canonical transactions not yet present in the
// primary accounting ledger and pushes them one by one. Every push is
// isolated: a failing item is counted and skipped, never aborting the rest.
package push

import (
	"context"
	"time"

	"propfin/ledger-sync/internal/connector/accounting"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/store"
	"propfin/ledger-sync/internal/taxonomy"
)

// LedgerClient is the write surface of the accounting ledger.
type LedgerClient interface {
	CreateTransaction(ctx context.Context, entry accounting.LedgerEntry) (string, error)
}

// Options selects what to push. When Transactions is non-empty it overrides
// the date range. IncludePushed re-submits transactions that already carry a
// ledger id (backfill escape hatch; the default excludes them so repeated
// pushes over overlapping ranges stay idempotent).
type Options struct {
	From          time.Time
	To            time.Time
	Transactions  []models.Transaction
	IncludePushed bool
}

// Result aggregates one push run.
type Result struct {
	TotalPushed int `json:"total_pushed"`
	Errors      int `json:"errors"`
}

// Engine pushes canonical transactions to the ledger.
type Engine struct {
	store    store.TransactionStore
	ledger   LedgerClient
	mappings *taxonomy.MappingStore
	logger   logging.Logger
}

// New creates a push Engine.
func New(st store.TransactionStore, ledger LedgerClient, mappings *taxonomy.MappingStore, logger logging.Logger) *Engine {
	return &Engine{
		store:    st,
		ledger:   ledger,
		mappings: mappings,
		logger:   logger,
	}
}

// Push sends the selected transactions to the ledger. It always returns a
// partial result; the error is non-nil only when the candidate selection
// itself failed.
func (e *Engine) Push(ctx context.Context, opts Options) (Result, error) {
	var result Result

	candidates := opts.Transactions
	if len(candidates) == 0 {
		all, err := e.store.GetByDateRange(ctx, opts.From, opts.To, "")
		if err != nil {
			return result, err
		}
		candidates = all
	}

	for _, tx := range candidates {
		// Transactions that originated in the ledger are already there.
		if tx.ExternalSource == models.PlatformLedger {
			continue
		}
		if tx.PushedLedgerID != "" && !opts.IncludePushed {
			continue
		}

		entry := accounting.LedgerEntry{
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      tx.Amount.String(),
			Category:    string(tx.Category),
		}
		if accountID, ok := e.mappings.LedgerAccountID(tx.Category); ok {
			entry.AccountID = accountID
		}

		ledgerID, err := e.ledger.CreateTransaction(ctx, entry)
		if err != nil {
			e.logger.WithError(err).WithField("id", tx.ID).Warn("Failed to push transaction")
			result.Errors++
			continue
		}

		if err := e.store.MarkPushed(ctx, tx.ID, ledgerID); err != nil {
			// The push itself succeeded; a failed mark only risks a
			// re-submission on the next overlapping run.
			e.logger.WithError(err).WithField("id", tx.ID).Warn("Failed to record ledger id")
		}
		result.TotalPushed++
	}

	e.logger.Info("Push finished",
		logging.F("pushed", result.TotalPushed),
		logging.F("errors", result.Errors))
	return result, nil
}
