// Package store defines the persistence contracts for canonical
// transactions, external accounts, and sync cursors, plus the in-process
// implementation used by the CLI. The uniqueness of the natural key
// (external id, external source) is enforced atomically inside the store,
// never by read-then-write logic in callers.
package store

import (
	"context"
	"errors"
	"time"

	"propfin/ledger-sync/internal/models"
)

// ErrDuplicate is returned by Create when a transaction with the same
// (external id, external source) already exists. Callers treat it as
// success-no-op: re-ingesting a source record must not duplicate it.
var ErrDuplicate = errors.New("transaction with this external id already exists")

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("not found")

// TransactionStore persists canonical transactions.
type TransactionStore interface {
	// Create inserts a transaction, assigning its id. Returns ErrDuplicate
	// if the natural key is already present; the stored record is not
	// mutated in that case.
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)

	// CreateManual inserts a hand-entered transaction with no external
	// identity, attributed to createdBy.
	CreateManual(ctx context.Context, tx models.Transaction, createdBy string) (models.Transaction, error)

	// GetByDateRange returns transactions with Date in [start, end),
	// optionally filtered by property.
	GetByDateRange(ctx context.Context, start, end time.Time, propertyID string) ([]models.Transaction, error)

	// ListByCategory returns transactions currently carrying the category.
	ListByCategory(ctx context.Context, category models.Category) ([]models.Transaction, error)

	// UpdateCategorization rewrites the categorization fields of one
	// transaction. The only mutation path besides MarkPushed.
	UpdateCategorization(ctx context.Context, id string, category models.Category, txType models.TxType, aiCategorized bool, confidence float64) error

	// MarkPushed records the ledger transaction id after a successful push.
	MarkPushed(ctx context.Context, id, ledgerID string) error
}

// AccountStore persists external accounts, one row per (platform, id).
type AccountStore interface {
	UpsertAccount(ctx context.Context, account models.ExternalAccount) error
	GetAccounts(ctx context.Context, platform models.Platform) ([]models.ExternalAccount, error)
}

// CursorStore persists per-(platform, account) sync watermarks.
type CursorStore interface {
	// GetLastSync returns the watermark, or the zero time when the account
	// has never been synced.
	GetLastSync(ctx context.Context, platform models.Platform, accountID string) (time.Time, error)
	SetLastSync(ctx context.Context, platform models.Platform, accountID string, ts time.Time) error
}

// Store is the full persistence surface the container wires up.
type Store interface {
	TransactionStore
	AccountStore
	CursorStore
}
