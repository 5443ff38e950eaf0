// Package models defines the canonical data model shared by the ingestion
// pipeline, the push engine, and the reconciliation engine. Every external
// platform's records are normalized into these types at the connector
// boundary.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the canonical transaction category taxonomy. Every transaction
// is classified into exactly one of these ten values.
type Category string

const (
	CategoryRent        Category = "rent"
	CategoryMaintenance Category = "maintenance"
	CategoryUtilities   Category = "utilities"
	CategoryInsurance   Category = "insurance"
	CategoryTaxes       Category = "taxes"
	CategoryMortgage    Category = "mortgage"
	CategorySupplies    Category = "supplies"
	CategoryCleaning    Category = "cleaning"
	CategoryMarketing   Category = "marketing"
	CategoryOther       Category = "other"
)

// Categories lists all canonical categories in resolution priority order.
// The keyword heuristics break ties by this order.
var Categories = []Category{
	CategoryRent,
	CategoryMaintenance,
	CategoryUtilities,
	CategoryInsurance,
	CategoryTaxes,
	CategoryMortgage,
	CategorySupplies,
	CategoryCleaning,
	CategoryMarketing,
	CategoryOther,
}

// ParseCategory normalizes a free-form category string into a canonical
// Category. Unknown values map to CategoryOther.
func ParseCategory(s string) (Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == needle {
			return c, true
		}
	}
	return CategoryOther, false
}

// TxType classifies a transaction as money in or money out.
type TxType string

const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

// TypeFromAmount infers the transaction type from the sign of the amount.
// Positive amounts are income, negative (and zero) are expense.
func TypeFromAmount(amount decimal.Decimal) TxType {
	if amount.IsPositive() {
		return TypeIncome
	}
	return TypeExpense
}

// Transaction is the canonical representation of a financial event,
// independent of which platform produced it. Identity fields are immutable
// once created; only the categorization fields may be rewritten afterwards,
// and only by the bulk recategorization pass.
type Transaction struct {
	ID             string            `json:"id" yaml:"id"`
	Amount         decimal.Decimal   `json:"amount" yaml:"amount"`
	Date           time.Time         `json:"date" yaml:"date"`
	Description    string            `json:"description" yaml:"description"`
	Category       Category          `json:"category" yaml:"category"`
	Type           TxType            `json:"type" yaml:"type"`
	PropertyID     string            `json:"property_id,omitempty" yaml:"property_id,omitempty"`
	ExternalID     string            `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	ExternalSource Platform          `json:"external_source,omitempty" yaml:"external_source,omitempty"`
	AICategorized  bool              `json:"ai_categorized" yaml:"ai_categorized"`
	AIConfidence   float64           `json:"ai_confidence" yaml:"ai_confidence"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	PushedLedgerID string            `json:"pushed_ledger_id,omitempty" yaml:"pushed_ledger_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at" yaml:"created_at"`
	CreatedBy      string            `json:"created_by,omitempty" yaml:"created_by,omitempty"`
}

// NaturalKey returns the composite key identifying the originating platform
// record. Empty for manual entries, which carry no external identity.
func (t Transaction) NaturalKey() string {
	if t.ExternalID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", t.ExternalSource, t.ExternalID)
}

// IsManual reports whether the transaction was entered by hand rather than
// ingested from a platform.
func (t Transaction) IsManual() bool {
	return t.ExternalID == ""
}
