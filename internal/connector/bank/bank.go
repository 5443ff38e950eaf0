// Package bank implements the source connector for the banking platform.
// Bank traffic goes through the egress proxy when one is configured, because
// the bank API allow-lists a fixed outbound IP. The platform labels
// direction explicitly (debit/credit), so the pipeline does not infer type
// from the amount's sign for bank records.
package bank

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
)

// Connector speaks the bank's JSON API, optionally through the egress proxy.
type Connector struct {
	baseURL string
	apiKey  string
	proxy   *connector.EgressProxy
	timeout time.Duration
	retry   connector.RetryConfig
	logger  logging.Logger
}

// New creates a bank connector. proxy may be nil for direct connectivity.
func New(baseURL, apiKey string, proxy *connector.EgressProxy, timeout time.Duration, retry connector.RetryConfig, logger logging.Logger) *Connector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Connector{
		baseURL: baseURL,
		apiKey:  apiKey,
		proxy:   proxy,
		timeout: timeout,
		retry:   retry,
		logger:  logger,
	}
}

// Platform implements connector.Connector.
func (c *Connector) Platform() models.Platform {
	return models.PlatformBank
}

type accountPayload struct {
	AccountID string `json:"account_id"`
	Nickname  string `json:"nickname"`
	Subtype   string `json:"subtype"`
	Available string `json:"available_balance"`
	Currency  string `json:"iso_currency_code"`
}

type transactionPayload struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Direction     string `json:"direction"` // "debit" or "credit"
	PostedAt      string `json:"posted_at"`
	Description   string `json:"description"`
	MerchantName  string `json:"merchant_name"`
	Category      string `json:"personal_finance_category"`
}

// ValidateCredentials implements connector.Connector.
func (c *Connector) ValidateCredentials(ctx context.Context) error {
	if c.apiKey == "" {
		return &connector.CredentialError{Platform: c.Platform(), Message: "missing API key"}
	}
	var out struct {
		Status string `json:"status"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		client := c.proxy.Client(ctx)
		return struct{}{}, connector.GetJSON(ctx, client, c.Platform(), c.baseURL+"/auth/check", c.apiKey, &out)
	})
	return err
}

// ListAccounts implements connector.Connector.
func (c *Connector) ListAccounts(ctx context.Context) ([]models.ExternalAccount, error) {
	var payload struct {
		Accounts []accountPayload `json:"accounts"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		client := c.proxy.Client(ctx)
		return struct{}{}, connector.GetJSON(ctx, client, c.Platform(), c.baseURL+"/accounts", c.apiKey, &payload)
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]models.ExternalAccount, 0, len(payload.Accounts))
	for _, a := range payload.Accounts {
		if a.AccountID == "" {
			c.logger.Warn("Skipping bank account without id")
			continue
		}
		balance, err := decimal.NewFromString(a.Available)
		if err != nil {
			balance = decimal.Zero
		}
		accounts = append(accounts, models.ExternalAccount{
			ExternalID: a.AccountID,
			Platform:   c.Platform(),
			Name:       a.Nickname,
			Type:       accountType(a.Subtype),
			Balance:    balance,
			Currency:   a.Currency,
		})
	}
	return accounts, nil
}

// ListTransactions implements connector.Connector.
func (c *Connector) ListTransactions(ctx context.Context, account models.ExternalAccount, since time.Time) ([]models.NativeTransaction, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions", c.baseURL, url.PathEscape(account.ExternalID))
	if !since.IsZero() {
		endpoint += "?start_date=" + url.QueryEscape(since.Format(time.RFC3339))
	}

	var payload struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	_, err := connector.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		client := c.proxy.Client(ctx)
		return struct{}{}, connector.GetJSON(ctx, client, c.Platform(), endpoint, c.apiKey, &payload)
	})
	if err != nil {
		return nil, err
	}

	native := make([]models.NativeTransaction, 0, len(payload.Transactions))
	for _, t := range payload.Transactions {
		tx, err := c.validate(t)
		if err != nil {
			c.logger.WithError(err).WithField("transaction_id", t.TransactionID).
				Warn("Skipping malformed bank transaction")
			continue
		}
		native = append(native, tx)
	}
	return native, nil
}

func (c *Connector) validate(t transactionPayload) (models.NativeTransaction, error) {
	if t.TransactionID == "" {
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
	posted, err := time.Parse(time.RFC3339, t.PostedAt)
	if err != nil {
		return models.NativeTransaction{}, &connector.MalformedResponseError{
			Platform: c.Platform(), Detail: "unparseable posted_at " + t.PostedAt, Err: err,
		}
	}

	var direction models.TxType
	switch t.Direction {
	case "debit":
		direction = models.TypeExpense
		// Bank amounts are unsigned; the direction label carries the sign.
		amount = amount.Abs().Neg()
	case "credit":
		direction = models.TypeIncome
		amount = amount.Abs()
	}

	return models.NativeTransaction{
		ID:             t.TransactionID,
		Amount:         amount,
		Date:           posted,
		Description:    t.Description,
		Vendor:         t.MerchantName,
		NativeCategory: t.Category,
		Direction:      direction,
		Raw: map[string]string{
			"direction":                 t.Direction,
			"merchant_name":             t.MerchantName,
			"personal_finance_category": t.Category,
		},
	}, nil
}

func accountType(subtype string) models.AccountType {
	switch subtype {
	case "checking":
		return models.AccountChecking
	case "savings", "money_market":
		return models.AccountSavings
	default:
		return models.AccountOther
	}
}
