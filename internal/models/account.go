package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies an external system a transaction or account came from.
type Platform string

const (
	// PlatformProperty is the property-management ledger.
	PlatformProperty Platform = "property"
	// PlatformBank is the banking platform.
	PlatformBank Platform = "bank"
	// PlatformLedger is the primary accounting ledger (push target).
	PlatformLedger Platform = "ledger"
	// PlatformVendor covers ad-hoc vendor feeds.
	PlatformVendor Platform = "vendor"
)

// SyncPlatforms lists the platforms the ingestion pipeline pulls from.
var SyncPlatforms = []Platform{PlatformProperty, PlatformBank, PlatformLedger, PlatformVendor}

// AccountType classifies an external account.
type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountOther    AccountType = "other"
)

// ExternalAccount is an account held at an external platform. One row per
// (platform, external account id), upserted on every sync pass.
type ExternalAccount struct {
	ExternalID   string          `json:"external_id" yaml:"external_id"`
	Platform     Platform        `json:"platform" yaml:"platform"`
	Name         string          `json:"name" yaml:"name"`
	Type         AccountType     `json:"type" yaml:"type"`
	Balance      decimal.Decimal `json:"balance" yaml:"balance"`
	Currency     string          `json:"currency" yaml:"currency"`
	LastSyncedAt time.Time       `json:"last_synced_at" yaml:"last_synced_at"`
}

// NativeTransaction is a platform-specific transaction record after boundary
// validation but before normalization into the canonical model. Connectors
// must populate ID, Amount, Date and Description; the rest is best effort.
type NativeTransaction struct {
	ID             string
	Amount         decimal.Decimal
	Date           time.Time
	Description    string
	Vendor         string
	NativeCategory string
	// Direction is set only when the platform explicitly labels money
	// movement (e.g. bank debit/credit codes). Empty means infer from sign.
	Direction TxType
	// Raw preserves the original source payload for the metadata bag.
	Raw map[string]string
}
