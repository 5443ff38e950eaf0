// Package taxonomy holds the category mapping table: the translation between
// each platform's native category vocabulary and the canonical taxonomy,
// plus lazily discovered ledger account ids. The store is injectable state,
// not a package-level singleton, so concurrent syncs share one instance
// through the container.
package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"gopkg.in/yaml.v3"
)

// MappingEntry translates one canonical category. PlatformCategories maps a
// platform to that platform's native category string; LedgerAccountID is
// filled in when a ledger sync discovers a matching account.
type MappingEntry struct {
	Canonical          models.Category            `yaml:"canonical"`
	PlatformCategories map[models.Platform]string `yaml:"platform_categories"`
	LedgerAccountID    string                     `yaml:"ledger_account_id,omitempty"`
}

// MappingStore is the process-wide category mapping table. All mutation goes
// through a single writer lock; entries for different canonical categories
// never overwrite each other's per-platform ids.
type MappingStore struct {
	mu      sync.RWMutex
	entries map[models.Category]*MappingEntry
	file    string
	dirty   bool
	logger  logging.Logger
}

// NewMappingStore creates a store seeded with the built-in defaults and, if
// file exists, overlays the persisted entries from it.
func NewMappingStore(file string, logger logging.Logger) *MappingStore {
	s := &MappingStore{
		entries: defaultEntries(),
		file:    file,
		logger:  logger,
	}
	if file != "" {
		if err := s.load(); err != nil {
			logger.WithError(err).Warn("Failed to load category mappings, using defaults")
		}
	}
	return s
}

// defaultEntries is the static seed translating each platform's stock
// vocabulary. Platforms with no native term for a category simply omit it.
func defaultEntries() map[models.Category]*MappingEntry {
	seed := map[models.Category]map[models.Platform]string{
		models.CategoryRent: {
			models.PlatformProperty: "Rent Income",
			models.PlatformBank:     "rent",
			models.PlatformLedger:   "Rental Income",
		},
		models.CategoryMaintenance: {
			models.PlatformProperty: "Repairs & Maintenance",
			models.PlatformBank:     "home_improvement",
			models.PlatformLedger:   "Repairs",
		},
		models.CategoryUtilities: {
			models.PlatformProperty: "Utilities",
			models.PlatformBank:     "utilities",
			models.PlatformLedger:   "Utilities",
		},
		models.CategoryInsurance: {
			models.PlatformProperty: "Insurance",
			models.PlatformBank:     "insurance",
			models.PlatformLedger:   "Insurance",
		},
		models.CategoryTaxes: {
			models.PlatformProperty: "Property Taxes",
			models.PlatformBank:     "tax",
			models.PlatformLedger:   "Taxes",
		},
		models.CategoryMortgage: {
			models.PlatformProperty: "Mortgage",
			models.PlatformBank:     "loan",
			models.PlatformLedger:   "Mortgage Interest",
		},
		models.CategorySupplies: {
			models.PlatformProperty: "Supplies",
			models.PlatformBank:     "shops",
			models.PlatformLedger:   "Office Supplies",
		},
		models.CategoryCleaning: {
			models.PlatformProperty: "Cleaning",
			models.PlatformLedger:   "Cleaning",
		},
		models.CategoryMarketing: {
			models.PlatformProperty: "Advertising",
			models.PlatformLedger:   "Advertising",
		},
		models.CategoryOther: {},
	}

	entries := make(map[models.Category]*MappingEntry, len(seed))
	for canonical, platforms := range seed {
		entries[canonical] = &MappingEntry{
			Canonical:          canonical,
			PlatformCategories: platforms,
		}
	}
	return entries
}

// Resolve looks up the canonical category for a platform-native category
// string. Matching is case-insensitive on the full native string.
func (s *MappingStore) Resolve(platform models.Platform, native string) (models.Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(native))
	if needle == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for canonical, entry := range s.entries {
		if mapped, ok := entry.PlatformCategories[platform]; ok && strings.ToLower(mapped) == needle {
			return canonical, true
		}
	}
	return "", false
}

// Upsert sets a platform's native string for a canonical category. Used by
// the auto-learn path when the AI classifier accepts a category for an
// unmapped native string.
func (s *MappingStore) Upsert(canonical models.Category, platform models.Platform, native string) {
	if strings.TrimSpace(native) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[canonical]
	if !ok {
		entry = &MappingEntry{Canonical: canonical, PlatformCategories: map[models.Platform]string{}}
		s.entries[canonical] = entry
	}
	if entry.PlatformCategories == nil {
		entry.PlatformCategories = map[models.Platform]string{}
	}
	entry.PlatformCategories[platform] = native
	s.dirty = true
}

// SetLedgerAccountID caches a discovered ledger account id for a canonical
// category. The first discovered id wins; concurrent discoveries from
// different platforms do not clobber an already-cached id.
func (s *MappingStore) SetLedgerAccountID(canonical models.Category, accountID string) bool {
	if accountID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[canonical]
	if !ok {
		entry = &MappingEntry{Canonical: canonical, PlatformCategories: map[models.Platform]string{}}
		s.entries[canonical] = entry
	}
	if entry.LedgerAccountID != "" {
		return false
	}
	entry.LedgerAccountID = accountID
	s.dirty = true
	return true
}

// LedgerAccountID returns the cached ledger account id for a category, if
// one has been discovered.
func (s *MappingStore) LedgerAccountID(canonical models.Category) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[canonical]
	if !ok || entry.LedgerAccountID == "" {
		return "", false
	}
	return entry.LedgerAccountID, true
}

// Entry returns a copy of the mapping entry for a canonical category.
func (s *MappingStore) Entry(canonical models.Category) (MappingEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[canonical]
	if !ok {
		return MappingEntry{}, false
	}
	out := MappingEntry{
		Canonical:       entry.Canonical,
		LedgerAccountID: entry.LedgerAccountID,
	}
	out.PlatformCategories = make(map[models.Platform]string, len(entry.PlatformCategories))
	for p, v := range entry.PlatformCategories {
		out.PlatformCategories[p] = v
	}
	return out, true
}

// mappingFile is the YAML shape persisted to disk.
type mappingFile struct {
	Mappings []MappingEntry `yaml:"mappings"`
}

func (s *MappingStore) load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading mapping file: %w", err)
	}

	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error parsing mapping file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range f.Mappings {
		entry := f.Mappings[i]
		s.entries[entry.Canonical] = &entry
	}
	s.logger.Debug("Loaded category mappings",
		logging.F("file", s.file), logging.F("entries", len(f.Mappings)))
	return nil
}

// Save persists the mapping table if it changed since the last save.
func (s *MappingStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.file == "" {
		return nil
	}

	f := mappingFile{Mappings: make([]MappingEntry, 0, len(s.entries))}
	for _, c := range models.Categories {
		if entry, ok := s.entries[c]; ok {
			f.Mappings = append(f.Mappings, *entry)
		}
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("error creating mapping directory: %w", err)
	}
	if err := os.WriteFile(s.file, data, 0o644); err != nil {
		return fmt.Errorf("error writing mapping file: %w", err)
	}

	s.dirty = false
	return nil
}
