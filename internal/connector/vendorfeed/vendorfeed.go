// Package vendorfeed implements the connector for ad-hoc vendor feeds:
// CSV files dropped into a feed directory, one file per vendor account.
// There is no remote API, so "credentials" reduce to the directory being
// readable, and the since watermark is applied locally.
package vendorfeed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// feedRow is one CSV row in a vendor feed file.
type feedRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	Vendor      string `csv:"vendor"`
	Category    string `csv:"category"`
}

// Connector reads vendor feed CSV files from a directory.
type Connector struct {
	dir    string
	logger logging.Logger
}

// New creates a vendor-feed connector rooted at dir.
func New(dir string, logger logging.Logger) *Connector {
	return &Connector{dir: dir, logger: logger}
}

// Platform implements connector.Connector.
func (c *Connector) Platform() models.Platform {
	return models.PlatformVendor
}

// ValidateCredentials implements connector.Connector. For a file-based feed
// this means the directory exists and is readable.
func (c *Connector) ValidateCredentials(_ context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil || !info.IsDir() {
		return &connector.CredentialError{
			Platform: c.Platform(),
			Message:  fmt.Sprintf("feed directory %q is not readable", c.dir),
		}
	}
	return nil
}

// ListAccounts implements connector.Connector. Each CSV file in the feed
// directory is one vendor account, named after the file.
func (c *Connector) ListAccounts(_ context.Context) ([]models.ExternalAccount, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, &connector.CredentialError{
			Platform: c.Platform(),
			Message:  fmt.Sprintf("cannot read feed directory %q: %v", c.dir, err),
		}
	}

	var accounts []models.ExternalAccount
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".csv")
		accounts = append(accounts, models.ExternalAccount{
			ExternalID: name,
			Platform:   c.Platform(),
			Name:       name,
			Type:       models.AccountOther,
			Currency:   "USD",
		})
	}
	return accounts, nil
}

// ListTransactions implements connector.Connector. Rows at or before since
// are filtered out locally; malformed rows are logged and skipped.
func (c *Connector) ListTransactions(_ context.Context, account models.ExternalAccount, since time.Time) ([]models.NativeTransaction, error) {
	path := filepath.Join(c.dir, account.ExternalID+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "missing feed file " + path, Err: err,
		}
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close feed file")
		}
	}()

	var rows []feedRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "undecodable feed file " + path, Err: err,
		}
	}

	native := make([]models.NativeTransaction, 0, len(rows))
	for i, row := range rows {
		tx, err := c.validate(row, account.ExternalID, i)
		if err != nil {
			c.logger.WithError(err).WithField("file", path).WithField("row", i+1).
				Warn("Skipping malformed feed row")
			continue
		}
		if !since.IsZero() && !tx.Date.After(since) {
			continue
		}
		native = append(native, tx)
	}
	return native, nil
}

func (c *Connector) validate(row feedRow, feed string, index int) (models.NativeTransaction, error) {
	id := row.ID
	if id == "" {
		// Feeds without an id column get a stable synthetic one so
		// re-ingestion stays idempotent.
		id = fmt.Sprintf("%s-%s-%d", feed, row.Date, index)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		return models.NativeTransaction{}, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "unparseable amount " + row.Amount, Err: err,
		}
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(row.Date))
	if err != nil {
		return models.NativeTransaction{}, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "unparseable date " + row.Date, Err: err,
		}
	}

	return models.NativeTransaction{
		ID:             id,
		Amount:         amount,
		Date:           date,
		Description:    row.Description,
		Vendor:         row.Vendor,
		NativeCategory: row.Category,
		Raw: map[string]string{
			"feed":   feed,
			"vendor": row.Vendor,
		},
	}, nil
}
