package taxonomy

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	s := NewMappingStore("", logging.NewMockLogger())

	tests := []struct {
		platform models.Platform
		native   string
		want     models.Category
		found    bool
	}{
		{models.PlatformProperty, "Rent Income", models.CategoryRent, true},
		{models.PlatformProperty, "rent income", models.CategoryRent, true},
		{models.PlatformBank, "home_improvement", models.CategoryMaintenance, true},
		{models.PlatformLedger, "Repairs", models.CategoryMaintenance, true},
		{models.PlatformBank, "cryptocurrency", "", false},
		{models.PlatformBank, "", "", false},
	}
	for _, tt := range tests {
		got, ok := s.Resolve(tt.platform, tt.native)
		assert.Equal(t, tt.found, ok, "%s/%s", tt.platform, tt.native)
		assert.Equal(t, tt.want, got)
	}
}

func TestUpsertLearnsNewNativeString(t *testing.T) {
	s := NewMappingStore("", logging.NewMockLogger())

	_, ok := s.Resolve(models.PlatformBank, "pest_control")
	require.False(t, ok)

	s.Upsert(models.CategoryMaintenance, models.PlatformBank, "pest_control")

	got, ok := s.Resolve(models.PlatformBank, "pest_control")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryMaintenance, got)

	// The entry for a different category is untouched.
	got, ok = s.Resolve(models.PlatformBank, "rent")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryRent, got)
}

func TestSetLedgerAccountIDFirstWins(t *testing.T) {
	s := NewMappingStore("", logging.NewMockLogger())

	assert.True(t, s.SetLedgerAccountID(models.CategoryUtilities, "acct-100"))
	assert.False(t, s.SetLedgerAccountID(models.CategoryUtilities, "acct-200"))

	id, ok := s.LedgerAccountID(models.CategoryUtilities)
	assert.True(t, ok)
	assert.Equal(t, "acct-100", id)

	_, ok = s.LedgerAccountID(models.CategoryRent)
	assert.False(t, ok)
}

func TestConcurrentUpsertsStayConsistent(t *testing.T) {
	s := NewMappingStore("", logging.NewMockLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Upsert(models.CategoryCleaning, models.PlatformBank, "cleaning_service")
		}()
		go func() {
			defer wg.Done()
			s.SetLedgerAccountID(models.CategoryCleaning, "acct-clean")
		}()
	}
	wg.Wait()

	got, ok := s.Resolve(models.PlatformBank, "cleaning_service")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryCleaning, got)

	id, ok := s.LedgerAccountID(models.CategoryCleaning)
	assert.True(t, ok)
	assert.Equal(t, "acct-clean", id)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mappings.yaml")

	s := NewMappingStore(file, logging.NewMockLogger())
	s.Upsert(models.CategorySupplies, models.PlatformVendor, "Hardware & Supplies")
	s.SetLedgerAccountID(models.CategorySupplies, "acct-sup")
	require.NoError(t, s.Save())

	_, err := os.Stat(file)
	require.NoError(t, err)

	reloaded := NewMappingStore(file, logging.NewMockLogger())
	got, ok := reloaded.Resolve(models.PlatformVendor, "hardware & supplies")
	assert.True(t, ok)
	assert.Equal(t, models.CategorySupplies, got)

	id, ok := reloaded.LedgerAccountID(models.CategorySupplies)
	assert.True(t, ok)
	assert.Equal(t, "acct-sup", id)
}

func TestSaveSkipsWhenClean(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mappings.yaml")

	s := NewMappingStore(file, logging.NewMockLogger())
	require.NoError(t, s.Save())

	// Nothing changed, so nothing was written.
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}
