package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a half-open reporting window [Start, End).
type Period struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether ts falls inside the period.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.Start) && ts.Before(p.End)
}

// Discrepancy is a single reconciliation finding. Matched pairs are only
// reported when their amounts differ; everything without a counterpart on
// the opposite side is reported unmatched.
type Discrepancy struct {
	Platform    Platform        `json:"platform" csv:"platform"`
	Description string          `json:"description" csv:"description"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Matched     bool            `json:"matched" csv:"matched"`
	Note        string          `json:"note,omitempty" csv:"note"`
}

// ReconciliationReport is the cross-platform reconciliation result for one
// period. Totals are keyed by platform, with the canonical store's own total
// under the pseudo-platform "canonical".
type ReconciliationReport struct {
	Period        Period                       `json:"period"`
	Totals        map[Platform]decimal.Decimal `json:"totals"`
	Discrepancies []Discrepancy                `json:"discrepancies"`
	Errors        int                          `json:"errors"`
	GeneratedAt   time.Time                    `json:"generated_at"`
}

// PlatformCanonical keys the canonical store's own total in report totals.
const PlatformCanonical Platform = "canonical"
