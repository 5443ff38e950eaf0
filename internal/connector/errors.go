package connector

import (
	"errors"
	"fmt"

	"propfin/ledger-sync/internal/models"
)

// CredentialError means the platform rejected (or is missing) the API key.
// It is the only error class that aborts a platform's whole sync run.
type CredentialError struct {
	Platform models.Platform
	Message  string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: credential rejected: %s", e.Platform, e.Message)
}

// TransientError wraps timeouts, connection failures, and 5xx responses.
// Transient errors are retried at the connector level with backoff, then
// skipped per item.
type TransientError struct {
	Platform models.Platform
	Op       string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure during %s: %v", e.Platform, e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the platform answered with an unexpected
// payload shape. The item is logged and skipped; the run continues.
type MalformedResponseError struct {
	Platform models.Platform
	Detail   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response (%s): %v", e.Platform, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: malformed response (%s)", e.Platform, e.Detail)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an error should be retried under the connector
// retry policy. Only transient failures qualify.
func IsRetryable(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsCredential reports whether an error is a hard credential failure.
func IsCredential(err error) bool {
	var cred *CredentialError
	return errors.As(err, &cred)
}
