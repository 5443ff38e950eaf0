package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MemoryStore is a mutex-guarded in-process Store with optional YAML
// snapshot persistence between CLI runs. The natural-key index makes
// Create's uniqueness check atomic under concurrent ingestion workers.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction // id -> transaction
	byNaturalKey map[string]string             // "source/externalID" -> id
	accounts     map[string]models.ExternalAccount
	cursors      map[string]time.Time

	file   string
	logger logging.Logger
}

// snapshot is the YAML shape persisted to disk.
type snapshot struct {
	Transactions []models.Transaction     `yaml:"transactions"`
	Accounts     []models.ExternalAccount `yaml:"accounts"`
	Cursors      map[string]time.Time     `yaml:"cursors"`
}

// NewMemoryStore creates a store. If file is non-empty and exists, the
// previous snapshot is loaded from it.
func NewMemoryStore(file string, logger logging.Logger) *MemoryStore {
	s := &MemoryStore{
		transactions: make(map[string]models.Transaction),
		byNaturalKey: make(map[string]string),
		accounts:     make(map[string]models.ExternalAccount),
		cursors:      make(map[string]time.Time),
		file:         file,
		logger:       logger,
	}
	if file != "" {
		if err := s.load(); err != nil {
			logger.WithError(err).Warn("Failed to load store snapshot, starting empty")
		}
	}
	return s
}

func accountKey(platform models.Platform, id string) string {
	return string(platform) + "/" + id
}

// Create implements TransactionStore.
func (s *MemoryStore) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ExternalID == "" || tx.ExternalSource == "" {
		return models.Transaction{}, fmt.Errorf("ingested transaction missing external identity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tx.NaturalKey()
	if _, exists := s.byNaturalKey[key]; exists {
		return models.Transaction{}, ErrDuplicate
	}

	tx.ID = uuid.NewString()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.transactions[tx.ID] = tx
	s.byNaturalKey[key] = tx.ID
	return tx, nil
}

// CreateManual implements TransactionStore.
func (s *MemoryStore) CreateManual(_ context.Context, tx models.Transaction, createdBy string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = uuid.NewString()
	tx.ExternalID = ""
	tx.ExternalSource = ""
	tx.CreatedBy = createdBy
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

// GetByDateRange implements TransactionStore. Results are sorted by date.
func (s *MemoryStore) GetByDateRange(_ context.Context, start, end time.Time, propertyID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		if propertyID != "" && tx.PropertyID != propertyID {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListByCategory implements TransactionStore.
func (s *MemoryStore) ListByCategory(_ context.Context, category models.Category) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// UpdateCategorization implements TransactionStore.
func (s *MemoryStore) UpdateCategorization(_ context.Context, id string, category models.Category, txType models.TxType, aiCategorized bool, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.Category = category
	tx.Type = txType
	tx.AICategorized = aiCategorized
	tx.AIConfidence = confidence
	s.transactions[id] = tx
	return nil
}

// MarkPushed implements TransactionStore.
func (s *MemoryStore) MarkPushed(_ context.Context, id, ledgerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.PushedLedgerID = ledgerID
	s.transactions[id] = tx
	return nil
}

// UpsertAccount implements AccountStore.
func (s *MemoryStore) UpsertAccount(_ context.Context, account models.ExternalAccount) error {
	if account.ExternalID == "" {
		return fmt.Errorf("account missing external id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountKey(account.Platform, account.ExternalID)] = account
	return nil
}

// GetAccounts implements AccountStore.
func (s *MemoryStore) GetAccounts(_ context.Context, platform models.Platform) ([]models.ExternalAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ExternalAccount
	for _, a := range s.accounts {
		if a.Platform == platform {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

// GetLastSync implements CursorStore.
func (s *MemoryStore) GetLastSync(_ context.Context, platform models.Platform, accountID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[accountKey(platform, accountID)], nil
}

// SetLastSync implements CursorStore. The watermark only moves forward.
func (s *MemoryStore) SetLastSync(_ context.Context, platform models.Platform, accountID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey(platform, accountID)
	if ts.After(s.cursors[key]) {
		s.cursors[key] = ts
	}
	return nil
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading store snapshot: %w", err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("error parsing store snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range snap.Transactions {
		s.transactions[tx.ID] = tx
		if key := tx.NaturalKey(); key != "" {
			s.byNaturalKey[key] = tx.ID
		}
	}
	for _, a := range snap.Accounts {
		s.accounts[accountKey(a.Platform, a.ExternalID)] = a
	}
	for k, v := range snap.Cursors {
		s.cursors[k] = v
	}
	s.logger.Debug("Loaded store snapshot",
		logging.F("file", s.file), logging.F("transactions", len(snap.Transactions)))
	return nil
}

// Flush writes the snapshot to disk. A no-op when the store was created
// without a file.
func (s *MemoryStore) Flush() error {
	if s.file == "" {
		return nil
	}

	s.mu.RLock()
	snap := snapshot{Cursors: make(map[string]time.Time, len(s.cursors))}
	for _, tx := range s.transactions {
		snap.Transactions = append(snap.Transactions, tx)
	}
	for _, a := range s.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}
	for k, v := range s.cursors {
		snap.Cursors[k] = v
	}
	s.mu.RUnlock()

	sort.Slice(snap.Transactions, func(i, j int) bool { return snap.Transactions[i].ID < snap.Transactions[j].ID })
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return accountKey(snap.Accounts[i].Platform, snap.Accounts[i].ExternalID) <
			accountKey(snap.Accounts[j].Platform, snap.Accounts[j].ExternalID)
	})

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("error marshaling store snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}
	if err := os.WriteFile(s.file, data, 0o644); err != nil {
		return fmt.Errorf("error writing store snapshot: %w", err)
	}
	return nil
}
