// Package propertyledger implements the source connector for the
// property-management platform. Payloads are validated into typed structs at
// this boundary; nothing dynamically shaped crosses into the pipeline.
package propertyledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
)

// Connector speaks the property platform's JSON API.
type Connector struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   connector.RetryConfig
	logger  logging.Logger
}

// New creates a property-ledger connector.
func New(baseURL, apiKey string, timeout time.Duration, retry connector.RetryConfig, logger logging.Logger) *Connector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Connector{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		logger:  logger,
	}
}

// Platform implements connector.Connector.
func (c *Connector) Platform() models.Platform {
	return models.PlatformProperty
}

// accountPayload is the platform's native account shape.
type accountPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// transactionPayload is the platform's native transaction shape.
type transactionPayload struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Memo       string `json:"memo"`
	Vendor     string `json:"vendor_name"`
	Category   string `json:"category_name"`
	PropertyID string `json:"property_id"`
	UnitID     string `json:"unit_id"`
}

// ValidateCredentials implements connector.Connector.
func (c *Connector) ValidateCredentials(ctx context.Context) error {
	if c.apiKey == "" {
		return &connector.CredentialError{Platform: c.Platform(), Message: "missing API key"}
	}
	var out struct {
		OK bool `json:"ok"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, connector.GetJSON(ctx, c.client, c.Platform(), c.baseURL+"/me", c.apiKey, &out)
	})
	return err
}

// ListAccounts implements connector.Connector.
func (c *Connector) ListAccounts(ctx context.Context) ([]models.ExternalAccount, error) {
	var payload struct {
		Accounts []accountPayload `json:"accounts"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, connector.GetJSON(ctx, c.client, c.Platform(), c.baseURL+"/accounts", c.apiKey, &payload)
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]models.ExternalAccount, 0, len(payload.Accounts))
	for _, a := range payload.Accounts {
		if a.ID == "" {
			c.logger.Warn("Skipping property account without id")
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
			Type:       accountType(a.Kind),
			Balance:    balance,
			Currency:   a.Currency,
		})
	}
	return accounts, nil
}

// ListTransactions implements connector.Connector. Malformed records are
// logged and skipped; the rest of the batch survives.
func (c *Connector) ListTransactions(ctx context.Context, account models.ExternalAccount, since time.Time) ([]models.NativeTransaction, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions", c.baseURL, url.PathEscape(account.ExternalID))
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
				Warn("Skipping malformed property transaction")
			continue
		}
		native = append(native, tx)
	}
	return native, nil
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
	date, err := time.Parse(time.RFC3339, t.Date)
	if err != nil {
		// The platform sometimes sends bare dates.
		date, err = time.Parse("2006-01-02", t.Date)
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
		Description:    t.Memo,
		Vendor:         t.Vendor,
		NativeCategory: t.Category,
		Raw: map[string]string{
			"property_id":   t.PropertyID,
			"unit_id":       t.UnitID,
			"category_name": t.Category,
		},
	}, nil
}

func accountType(kind string) models.AccountType {
	switch kind {
	case "checking", "operating":
		return models.AccountChecking
	case "savings", "escrow":
		return models.AccountSavings
	default:
		return models.AccountOther
	}
}
