package propertyledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() connector.RetryConfig {
	return connector.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func newTestConnector(serverURL string) *Connector {
	return New(serverURL, "key-pm", 5*time.Second, fastRetry(), logging.NewMockLogger())
}

func TestListTransactionsCarriesPropertyContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/pm-1/transactions", r.URL.Path)
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"t-1","amount":"1500.00","date":"2024-05-01","memo":"May rent unit 2A","vendor_name":"","category_name":"Rent Income","property_id":"prop-7","unit_id":"unit-2a"},
			{"id":"t-2","amount":"-430.00","date":"2024-05-03T10:30:00Z","memo":"HVAC repair","vendor_name":"CoolAir LLC","category_name":"Repairs & Maintenance","property_id":"prop-7","unit_id":""}
		]}`))
	}))
	defer server.Close()

	account := models.ExternalAccount{ExternalID: "pm-1", Platform: models.PlatformProperty}
	txs, err := newTestConnector(server.URL).ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 2, "both RFC3339 and bare dates are accepted")

	assert.Equal(t, "prop-7", txs[0].Raw["property_id"])
	assert.Equal(t, "unit-2a", txs[0].Raw["unit_id"])
	assert.Equal(t, "Rent Income", txs[0].NativeCategory)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("1500.00")))
	assert.Equal(t, "CoolAir LLC", txs[1].Vendor)
}

func TestListTransactionsSkipsMalformedRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"","amount":"10","date":"2024-05-01","memo":"no id"},
			{"id":"t-2","amount":"ten","date":"2024-05-01","memo":"bad amount"},
			{"id":"t-3","amount":"10","date":"yesterday","memo":"bad date"},
			{"id":"t-4","amount":"10","date":"2024-05-01","memo":"good"}
		]}`))
	}))
	defer server.Close()

	log := logging.NewMockLogger()
	c := New(server.URL, "key-pm", 5*time.Second, fastRetry(), log)
	account := models.ExternalAccount{ExternalID: "pm-1", Platform: models.PlatformProperty}

	txs, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t-4", txs[0].ID)
	assert.True(t, log.HasEntry("warn", "Skipping malformed property transaction"))
}

func TestValidateCredentials(t *testing.T) {
	missingKey := New("http://example.invalid", "", time.Second, fastRetry(), logging.NewMockLogger())
	err := missingKey.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, connector.IsCredential(err))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	assert.NoError(t, newTestConnector(server.URL).ValidateCredentials(context.Background()))
}
