package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	platform     models.Platform
	transactions []models.NativeTransaction
	err          error
}

func (f *fakeConnector) Platform() models.Platform { return f.platform }

func (f *fakeConnector) ValidateCredentials(context.Context) error { return nil }

func (f *fakeConnector) ListAccounts(context.Context) ([]models.ExternalAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.ExternalAccount{{ExternalID: "acct-1", Platform: f.platform}}, nil
}

func (f *fakeConnector) ListTransactions(context.Context, models.ExternalAccount, time.Time) ([]models.NativeTransaction, error) {
	return f.transactions, nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func january() models.Period {
	return models.Period{Start: day(1), End: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
}

func seed(t *testing.T, st *store.MemoryStore, externalID, description string, amount int64, d int) {
	t.Helper()
	_, err := st.Create(context.Background(), models.Transaction{
		Amount:         decimal.NewFromInt(amount),
		Date:           day(d),
		Description:    description,
		Category:       models.CategoryRent,
		Type:           models.TypeIncome,
		ExternalID:     externalID,
		ExternalSource: models.PlatformProperty,
	})
	require.NoError(t, err)
}

func TestReconcileMatchesFuzzyPairs(t *testing.T) {
	log := logging.NewMockLogger()
	st := store.NewMemoryStore("", log)
	seed(t, st, "c-1", "Rent Jan", 100, 5)

	conn := &fakeConnector{
		platform: models.PlatformProperty,
		transactions: []models.NativeTransaction{
			// One day off and differently cased, but the same event.
			{ID: "n-1", Amount: decimal.NewFromInt(100), Date: day(6), Description: "RENT JANUARY"},
		},
	}
	e := New(st, map[models.Platform]connector.Connector{models.PlatformProperty: conn}, log)

	report, err := e.Reconcile(context.Background(), january())
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies, "a clean fuzzy match produces no findings")
	assert.Zero(t, report.Errors)
	assert.True(t, report.Totals[models.PlatformCanonical].Equal(decimal.NewFromInt(100)))
	assert.True(t, report.Totals[models.PlatformProperty].Equal(decimal.NewFromInt(100)))
}

func TestReconcileReportsUnmatchedOnBothSides(t *testing.T) {
	log := logging.NewMockLogger()
	st := store.NewMemoryStore("", log)
	seed(t, st, "c-1", "Rent Jan", 100, 5)
	seed(t, st, "c-2", "Late fee unit 9", 50, 12)

	conn := &fakeConnector{
		platform: models.PlatformProperty,
		transactions: []models.NativeTransaction{
			{ID: "n-1", Amount: decimal.NewFromInt(100), Date: day(6), Description: "RENT JANUARY"},
			{ID: "n-2", Amount: decimal.NewFromInt(75), Date: day(20), Description: "Parking income"},
		},
	}
	e := New(st, map[models.Platform]connector.Connector{models.PlatformProperty: conn}, log)

	report, err := e.Reconcile(context.Background(), january())
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 2)

	byDesc := map[string]models.Discrepancy{}
	for _, d := range report.Discrepancies {
		byDesc[d.Description] = d
	}

	canonicalOnly := byDesc["Late fee unit 9"]
	assert.False(t, canonicalOnly.Matched)
	assert.Equal(t, models.PlatformCanonical, canonicalOnly.Platform)

	platformOnly := byDesc["Parking income"]
	assert.False(t, platformOnly.Matched)
	assert.Equal(t, models.PlatformProperty, platformOnly.Platform)
}

func TestReconcileWindowAndTokenLimits(t *testing.T) {
	tests := []struct {
		name        string
		nativeDate  time.Time
		nativeDesc  string
		wantMatched bool
	}{
		{"two days apart still matches", day(7), "RENT JANUARY", true},
		{"three days apart does not", day(8), "RENT JANUARY", false},
		{"no shared tokens does not", day(5), "Transfer 4417", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logging.NewMockLogger()
			st := store.NewMemoryStore("", log)
			seed(t, st, "c-1", "Rent Jan", 100, 5)

			conn := &fakeConnector{
				platform: models.PlatformProperty,
				transactions: []models.NativeTransaction{
					{ID: "n-1", Amount: decimal.NewFromInt(100), Date: tt.nativeDate, Description: tt.nativeDesc},
				},
			}
			e := New(st, map[models.Platform]connector.Connector{models.PlatformProperty: conn}, log)

			report, err := e.Reconcile(context.Background(), january())
			require.NoError(t, err)
			if tt.wantMatched {
				assert.Empty(t, report.Discrepancies)
			} else {
				assert.Len(t, report.Discrepancies, 2, "both sides report the missing counterpart")
			}
		})
	}
}

func TestReconcileAmountVarianceIsFlagged(t *testing.T) {
	log := logging.NewMockLogger()
	st := store.NewMemoryStore("", log)
	seed(t, st, "c-1", "Rent Jan", 100, 5)

	conn := &fakeConnector{
		platform: models.PlatformProperty,
		transactions: []models.NativeTransaction{
			// Rounds to the same bucket but differs in the exact amount.
			{ID: "n-1", Amount: decimal.RequireFromString("100.25"), Date: day(5), Description: "Rent Jan"},
		},
	}
	e := New(st, map[models.Platform]connector.Connector{models.PlatformProperty: conn}, log)

	report, err := e.Reconcile(context.Background(), january())
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	assert.True(t, report.Discrepancies[0].Matched)
	assert.Contains(t, report.Discrepancies[0].Note, "amount variance")
}

func TestReconcilePlatformFailureIsPartial(t *testing.T) {
	log := logging.NewMockLogger()
	st := store.NewMemoryStore("", log)
	seed(t, st, "c-1", "Rent Jan", 100, 5)

	good := &fakeConnector{
		platform: models.PlatformProperty,
		transactions: []models.NativeTransaction{
			{ID: "n-1", Amount: decimal.NewFromInt(100), Date: day(5), Description: "Rent Jan"},
		},
	}
	bad := &fakeConnector{platform: models.PlatformBank, err: errors.New("connection refused")}
	e := New(st, map[models.Platform]connector.Connector{
		models.PlatformProperty: good,
		models.PlatformBank:     bad,
	}, log)

	report, err := e.Reconcile(context.Background(), january())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	_, ok := report.Totals[models.PlatformBank]
	assert.False(t, ok, "an unreachable platform contributes no total")
	assert.True(t, report.Totals[models.PlatformProperty].Equal(decimal.NewFromInt(100)))
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Rent Jan", "RENT JANUARY", 0.5},
		{"Rent Jan", "rent jan", 1.0},
		{"ACME #4417", "acme 4417", 1.0},
		{"Rent", "Transfer", 0},
		{"", "Rent", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tokenOverlap(tt.a, tt.b), 0.001, "%q vs %q", tt.a, tt.b)
	}
}

func TestRenderJSON(t *testing.T) {
	report := models.ReconciliationReport{
		Period: january(),
		Totals: map[models.Platform]decimal.Decimal{
			models.PlatformCanonical: decimal.NewFromInt(150),
		},
		Discrepancies: []models.Discrepancy{
			{Platform: models.PlatformCanonical, Description: "Late fee", Amount: decimal.NewFromInt(50)},
		},
		GeneratedAt: day(31),
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report, "json"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "totals")
	assert.Contains(t, decoded, "discrepancies")
}

func TestRenderCSV(t *testing.T) {
	report := models.ReconciliationReport{
		Period: january(),
		Totals: map[models.Platform]decimal.Decimal{
			models.PlatformCanonical: decimal.NewFromInt(150),
			models.PlatformProperty:  decimal.NewFromInt(100),
		},
		Discrepancies: []models.Discrepancy{
			{Platform: models.PlatformProperty, Description: "Parking income", Amount: decimal.NewFromInt(75)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report, "csv"))

	out := buf.String()
	assert.Contains(t, out, "# total canonical: 150")
	assert.Contains(t, out, "# total property: 100")
	assert.Contains(t, out, "Parking income")
	assert.True(t, strings.Contains(out, "platform"), "header row present")

	assert.Error(t, Render(&buf, report, "xml"))
}
