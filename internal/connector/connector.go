// Package connector defines the polymorphic source-connector capability and
// the shared plumbing every connector uses: typed boundary errors, an
// explicit retry policy, and the egress proxy wrapper for platforms that
// allow-list a fixed outbound IP.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"propfin/ledger-sync/internal/models"
)

// Connector is one external platform's read surface. Implementations make
// outbound network calls; every method honors context cancellation and
// carries the configured request timeout.
type Connector interface {
	// Platform identifies which external system this connector speaks to.
	Platform() models.Platform

	// ListAccounts returns all accounts visible to the configured credential.
	ListAccounts(ctx context.Context) ([]models.ExternalAccount, error)

	// ListTransactions returns the account's transactions strictly after
	// since. A zero since means the full available history.
	ListTransactions(ctx context.Context, account models.ExternalAccount, since time.Time) ([]models.NativeTransaction, error)

	// ValidateCredentials checks the configured credential without side
	// effects. A *CredentialError aborts the whole sync for the platform.
	ValidateCredentials(ctx context.Context) error
}

// GetJSON performs an authenticated GET and decodes the JSON body into out.
// Response status codes are classified into the boundary error taxonomy so
// callers never inspect HTTP details.
func GetJSON(ctx context.Context, client *http.Client, platform models.Platform, url, apiKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// Timeouts and connection resets are transient by definition.
		return &TransientError{Platform: platform, Op: url, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &CredentialError{Platform: platform, Message: resp.Status}
	case resp.StatusCode >= 500:
		return &TransientError{Platform: platform, Op: url, Err: fmt.Errorf("server error: %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return &MalformedResponseError{Platform: platform, Detail: "unexpected status " + resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Platform: platform, Op: url, Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Platform: platform, Detail: "undecodable body", Err: err}
	}
	return nil
}
