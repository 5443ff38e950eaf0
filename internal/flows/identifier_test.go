package flows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"propfin/ledger-sync/internal/categorizer"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentifier() *Identifier {
	log := logging.NewMockLogger()
	resolver := categorizer.NewResolver(taxonomy.NewMappingStore("", log), nil, 0, log)
	return NewIdentifier(DefaultCatalog(), resolver, log)
}

func TestIdentifyPropertyBoundRentPrefersScopedTemplate(t *testing.T) {
	id := newTestIdentifier()

	got := id.Identify(context.Background(), Draft{
		Description: "March rent unit 2A",
		Amount:      decimal.NewFromInt(1500),
		PropertyID:  "prop-12",
	})
	require.NotNil(t, got)
	assert.Equal(t, "rent-collection", got.ID)
	assert.True(t, got.RequiresProperty)
}

func TestIdentifyUnboundRentFallsThroughTieBreak(t *testing.T) {
	id := newTestIdentifier()

	// No property id, so both rent templates stay candidates; the "rent"
	// keyword tie-break picks the primary collection flow.
	got := id.Identify(context.Background(), Draft{
		Description: "rent wire transfer",
		Amount:      decimal.NewFromInt(1500),
	})
	require.NotNil(t, got)
	assert.Equal(t, "rent-collection", got.ID)
}

func TestIdentifyMaintenance(t *testing.T) {
	id := newTestIdentifier()

	tests := []struct {
		name   string
		draft  Draft
		wantID string
	}{
		{
			name: "property-bound repair",
			draft: Draft{
				Description: "Water heater repair",
				Amount:      decimal.NewFromInt(-430),
				PropertyID:  "prop-3",
			},
			wantID: "maintenance-job",
		},
		{
			name: "unbound repair tie-breaks to the job flow",
			draft: Draft{
				Description: "general repair visit",
				Amount:      decimal.NewFromInt(-80),
			},
			wantID: "maintenance-job",
		},
		{
			name: "utility payment",
			draft: Draft{
				Description: "Monthly electric bill",
				Amount:      decimal.NewFromInt(-120),
			},
			wantID: "utility-payment",
		},
		{
			name: "mortgage",
			draft: Draft{
				Description: "Mortgage payment June",
				Amount:      decimal.NewFromInt(-2100),
			},
			wantID: "mortgage-payment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := id.Identify(context.Background(), tt.draft)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestIdentifyNoMatchReturnsNil(t *testing.T) {
	id := newTestIdentifier()

	// An unknown inflow resolves to other/income, which still has catalog
	// candidates; the first one is returned.
	got := id.Identify(context.Background(), Draft{
		Description: "Unknown inflow 7781",
		Amount:      decimal.NewFromInt(10),
	})
	require.NotNil(t, got)
	assert.Equal(t, models.CategoryOther, got.Category)

	// Supplies has no flow in the catalog, so a supplies expense has no match.
	none := id.Identify(context.Background(), Draft{
		Description: "Office Depot order",
		Amount:      decimal.NewFromInt(-45),
	})
	assert.Nil(t, none)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.yaml")
	content := `flows:
  - id: custom-flow
    name: Custom Flow
    category: rent
    type: income
    accounts:
      source: tenant
      destination: operating
    requires_property: true
    recurrence: monthly
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "custom-flow", catalog[0].ID)
	assert.Equal(t, models.CategoryRent, catalog[0].Category)
	assert.True(t, catalog[0].RequiresProperty)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
