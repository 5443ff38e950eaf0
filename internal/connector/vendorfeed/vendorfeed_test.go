package vendorfeed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestListAccountsOnePerFeedFile(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "acme-cleaning.csv", "id,date,amount,description,vendor,category\n")
	writeFeed(t, dir, "hvac-partners.csv", "id,date,amount,description,vendor,category\n")
	writeFeed(t, dir, "notes.txt", "not a feed")

	c := New(dir, logging.NewMockLogger())
	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acme-cleaning", accounts[0].ExternalID)
	assert.Equal(t, models.PlatformVendor, accounts[0].Platform)
}

func TestListTransactionsParsesRows(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "acme.csv",
		"id,date,amount,description,vendor,category\n"+
			"v-1,2024-04-02,-150.50,Deep clean unit 3,ACME Cleaning,cleaning\n"+
			"v-2,2024-04-09,-150.50,Deep clean unit 5,ACME Cleaning,cleaning\n")

	c := New(dir, logging.NewMockLogger())
	account := models.ExternalAccount{ExternalID: "acme", Platform: models.PlatformVendor}

	txs, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "v-1", txs[0].ID)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-150.50")))
	assert.Equal(t, "cleaning", txs[0].NativeCategory)
	assert.Equal(t, "ACME Cleaning", txs[0].Vendor)
	assert.Equal(t, "acme", txs[0].Raw["feed"])
}

func TestListTransactionsAppliesSinceLocally(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "acme.csv",
		"id,date,amount,description,vendor,category\n"+
			"v-1,2024-04-02,-10,Old,ACME,cleaning\n"+
			"v-2,2024-04-09,-20,New,ACME,cleaning\n")

	c := New(dir, logging.NewMockLogger())
	account := models.ExternalAccount{ExternalID: "acme", Platform: models.PlatformVendor}
	since := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	txs, err := c.ListTransactions(context.Background(), account, since)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "v-2", txs[0].ID, "rows at or before the watermark are excluded")
}

func TestListTransactionsSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "acme.csv",
		"id,date,amount,description,vendor,category\n"+
			"v-1,2024-04-02,not-a-number,Bad amount,ACME,cleaning\n"+
			"v-2,04/09/2024,-20,Bad date,ACME,cleaning\n"+
			"v-3,2024-04-10,-20,Good,ACME,cleaning\n")

	log := logging.NewMockLogger()
	c := New(dir, log)
	account := models.ExternalAccount{ExternalID: "acme", Platform: models.PlatformVendor}

	txs, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "v-3", txs[0].ID)
	assert.True(t, log.HasEntry("warn", "Skipping malformed feed row"))
}

func TestSyntheticIDIsStable(t *testing.T) {
	dir := t.TempDir()
	content := "id,date,amount,description,vendor,category\n" +
		",2024-04-02,-10,No id,ACME,cleaning\n"
	writeFeed(t, dir, "acme.csv", content)

	c := New(dir, logging.NewMockLogger())
	account := models.ExternalAccount{ExternalID: "acme", Platform: models.PlatformVendor}

	first, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)
	second, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID, "re-reading a feed must not mint new identities")
	assert.Equal(t, "acme-2024-04-02-0", first[0].ID)
}

func TestValidateCredentials(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, logging.NewMockLogger())
	assert.NoError(t, c.ValidateCredentials(context.Background()))

	missing := New(filepath.Join(dir, "nope"), logging.NewMockLogger())
	err := missing.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, connector.IsCredential(err))
}

func TestListTransactionsMissingFile(t *testing.T) {
	c := New(t.TempDir(), logging.NewMockLogger())
	account := models.ExternalAccount{ExternalID: "ghost", Platform: models.PlatformVendor}

	_, err := c.ListTransactions(context.Background(), account, time.Time{})
	require.Error(t, err)

	var malformed *connector.MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}
