// Package accounting implements the connector for the primary accounting
// ledger. Unlike the other connectors it is bidirectional: the ingestion
// pipeline reads accounts and transactions from it, and the outbound push
// engine writes transactions back through CreateTransaction.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
)

// Connector speaks the accounting ledger's JSON API.
type Connector struct {
	baseURL    string
	apiKey     string
	businessID string
	client     *http.Client
	retry      connector.RetryConfig
	logger     logging.Logger
}

// New creates an accounting-ledger connector scoped to one business.
func New(baseURL, apiKey, businessID string, timeout time.Duration, retry connector.RetryConfig, logger logging.Logger) *Connector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Connector{
		baseURL:    baseURL,
		apiKey:     apiKey,
		businessID: businessID,
		client:     &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     logger,
	}
}

// Platform implements connector.Connector.
func (c *Connector) Platform() models.Platform {
	return models.PlatformLedger
}

type accountPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type transactionPayload struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AccountName string `json:"account_name"`
}

// LedgerEntry is the payload shape CreateTransaction sends to the ledger.
type LedgerEntry struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	AccountID   string `json:"account_id,omitempty"`
}

// ValidateCredentials implements connector.Connector.
func (c *Connector) ValidateCredentials(ctx context.Context) error {
	if c.apiKey == "" {
		return &connector.CredentialError{Platform: c.Platform(), Message: "missing API key"}
	}
	var out struct {
		BusinessID string `json:"business_id"`
	}
	endpoint := fmt.Sprintf("%s/businesses/%s", c.baseURL, url.PathEscape(c.businessID))
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, connector.GetJSON(ctx, c.client, c.Platform(), endpoint, c.apiKey, &out)
	})
	return err
}

// ListAccounts implements connector.Connector. The returned accounts are the
// ledger's chart of accounts; the ingestion pipeline scans their names to
// discover ledger account ids for canonical categories.
func (c *Connector) ListAccounts(ctx context.Context) ([]models.ExternalAccount, error) {
	endpoint := fmt.Sprintf("%s/businesses/%s/accounts", c.baseURL, url.PathEscape(c.businessID))
	var payload struct {
		Accounts []accountPayload `json:"accounts"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, connector.GetJSON(ctx, c.client, c.Platform(), endpoint, c.apiKey, &payload)
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]models.ExternalAccount, 0, len(payload.Accounts))
	for _, a := range payload.Accounts {
		if a.ID == "" {
			c.logger.Warn("Skipping ledger account without id")
			continue
		}
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil {
			balance = decimal.Zero
		}
		accounts = append(accounts, models.ExternalAccount{
			ExternalID: a.ID,
			Platform:   c.Platform(),
			Name:       a.Name,
			Type:       models.AccountOther,
			Balance:    balance,
			Currency:   a.Currency,
		})
	}
	return accounts, nil
}

// ListTransactions implements connector.Connector.
func (c *Connector) ListTransactions(ctx context.Context, account models.ExternalAccount, since time.Time) ([]models.NativeTransaction, error) {
	endpoint := fmt.Sprintf("%s/businesses/%s/accounts/%s/transactions",
		c.baseURL, url.PathEscape(c.businessID), url.PathEscape(account.ExternalID))
	if !since.IsZero() {
		endpoint += "?since=" + url.QueryEscape(since.Format(time.RFC3339))
	}

	var payload struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, connector.GetJSON(ctx, c.client, c.Platform(), endpoint, c.apiKey, &payload)
	})
	if err != nil {
		return nil, err
	}

	native := make([]models.NativeTransaction, 0, len(payload.Transactions))
	for _, t := range payload.Transactions {
		tx, err := c.validate(t)
		if err != nil {
			c.logger.WithError(err).WithField("transaction_id", t.ID).
				Warn("Skipping malformed ledger transaction")
			continue
		}
		native = append(native, tx)
	}
	return native, nil
}

// CreateTransaction pushes one entry into the ledger and returns the ledger
// transaction id.
func (c *Connector) CreateTransaction(ctx context.Context, entry LedgerEntry) (string, error) {
	endpoint := fmt.Sprintf("%s/businesses/%s/transactions", c.baseURL, url.PathEscape(c.businessID))

	return connector.WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		body, err := json.Marshal(entry)
		if err != nil {
			return "", fmt.Errorf("encoding ledger entry: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return "", &connector.TransientError{Platform: c.Platform(), Op: "create transaction", Err: err}
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", &connector.CredentialError{Platform: c.Platform(), Message: resp.Status}
		case resp.StatusCode >= 500:
			return "", &connector.TransientError{Platform: c.Platform(), Op: "create transaction", Err: fmt.Errorf("server error: %s", resp.Status)}
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
			return "", &connector.MalformedResponseError{Platform: c.Platform(), Detail: "unexpected status " + resp.Status}
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &connector.TransientError{Platform: c.Platform(), Op: "create transaction", Err: err}
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &created); err != nil || created.ID == "" {
			return "", &connector.MalformedResponseError{Platform: c.Platform(), Detail: "create response missing id", Err: err}
		}
		return created.ID, nil
	})
}

func (c *Connector) validate(t transactionPayload) (models.NativeTransaction, error) {
	if t.ID == "" {
		return models.NativeTransaction{}, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "transaction missing id",
		}
	}
	amount, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return models.NativeTransaction{}, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "unparseable amount " + t.Amount, Err: err,
		}
	}
	date, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		date, err = time.Parse(time.RFC3339, t.Date)
		if err != nil {
			return models.NativeTransaction{}, &connector.MalformedResponseError{
				Platform: c.Platform(), Detail: "unparseable date " + t.Date, Err: err,
			}
		}
	}

	return models.NativeTransaction{
		ID:             t.ID,
		Amount:         amount,
		Date:           date,
		Description:    t.Description,
		NativeCategory: t.AccountName,
		Raw: map[string]string{
			"account_name": t.AccountName,
		},
	}, nil
}
