package categorizer

import (
	"context"

	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
)

// ClassifyRequest is the input to an AI classification call.
type ClassifyRequest struct {
	Description string
	Amount      decimal.Decimal
	Vendor      string
}

// Classification is the AI adapter's suggestion for one transaction.
type Classification struct {
	Category   models.Category
	Type       models.TxType
	Confidence float64
}

// AIClient abstracts the natural-language classification service so the
// resolution chain can be tested without network calls. Implementations must
// treat malformed or non-JSON responses as a low-confidence failure, not a
// panic.
type AIClient interface {
	Classify(ctx context.Context, req ClassifyRequest) (Classification, error)
}
