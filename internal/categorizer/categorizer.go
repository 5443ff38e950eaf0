// Package categorizer resolves a transaction's canonical category using
// three methods, tried in order:
// 1. Direct mapping of the platform's native category string
// 2. Local keyword heuristics on description and vendor
// 3. AI-based classification as a fallback, gated by a confidence threshold
package categorizer

import (
	"context"
	"strings"

	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/taxonomy"

	"github.com/shopspring/decimal"
)

// Source identifies which resolution method produced a result.
type Source string

const (
	SourceMapping Source = "mapping"
	SourceKeyword Source = "keyword"
	SourceAI      Source = "ai"
	// SourceDefault marks results no method produced: nothing matched and no
	// AI client is configured.
	SourceDefault Source = "default"
)

// DefaultConfidenceThreshold is the minimum AI confidence required to accept
// a machine-suggested category over the default "other". The comparison is
// strict: exactly this value does not accept.
const DefaultConfidenceThreshold = 0.70

// failureConfidence is recorded when the AI adapter errors out.
const failureConfidence = 0.3

// Input carries everything the resolver may consult for one transaction.
type Input struct {
	Description    string
	Amount         decimal.Decimal
	Vendor         string
	SourcePlatform models.Platform
	NativeCategory string
	// Direction is set when the platform explicitly labels money movement;
	// empty means infer the type from the sign of Amount.
	Direction models.TxType
}

// Result is the outcome of category resolution.
type Result struct {
	Category   models.Category
	Type       models.TxType
	Confidence float64
	Source     Source
	// AIAccepted is true when the AI fallback ran and its suggestion cleared
	// the confidence threshold.
	AIAccepted bool
}

// Resolver chains the three resolution strategies. It is safe for concurrent
// use by ingestion workers.
type Resolver struct {
	mappings  *taxonomy.MappingStore
	aiClient  AIClient
	threshold float64
	logger    logging.Logger
}

// NewResolver creates a Resolver. aiClient may be nil, in which case the AI
// fallback is skipped and unresolved transactions stay "other". A threshold
// of zero selects DefaultConfidenceThreshold.
func NewResolver(mappings *taxonomy.MappingStore, aiClient AIClient, threshold float64, logger logging.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Resolver{
		mappings:  mappings,
		aiClient:  aiClient,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve applies the resolution chain. It never returns an error: adapter
// failures degrade to "other" with a low recorded confidence so one bad
// transaction cannot fail a batch.
func (r *Resolver) Resolve(ctx context.Context, in Input) Result {
	// Step 1: direct mapping of the native category string.
	if in.NativeCategory != "" {
		if canonical, ok := r.mappings.Resolve(in.SourcePlatform, in.NativeCategory); ok {
			return Result{
				Category:   canonical,
				Type:       r.txType(in),
				Confidence: 1.0,
				Source:     SourceMapping,
			}
		}
	}

	// Step 2: keyword heuristics on description and vendor.
	if canonical, ok := matchKeywords(in.Description, in.Vendor); ok {
		return Result{
			Category:   canonical,
			Type:       r.txType(in),
			Confidence: keywordConfidence,
			Source:     SourceKeyword,
		}
	}

	// Step 3: AI fallback, only when the local methods yield "other".
	return r.resolveWithAI(ctx, in)
}

func (r *Resolver) resolveWithAI(ctx context.Context, in Input) Result {
	fallback := Result{
		Category:   models.CategoryOther,
		Type:       r.txType(in),
		Confidence: 0,
		Source:     SourceDefault,
	}
	if r.aiClient == nil {
		return fallback
	}

	classification, err := r.aiClient.Classify(ctx, ClassifyRequest{
		Description: in.Description,
		Amount:      in.Amount,
		Vendor:      in.Vendor,
	})
	if err != nil {
		r.logger.WithError(err).WithField("description", truncate(in.Description, 60)).
			Warn("AI classification failed, keeping category 'other'")
		fallback.Source = SourceAI
		fallback.Confidence = failureConfidence
		return fallback
	}

	if classification.Confidence <= r.threshold {
		// Below or at the threshold the suggestion is rejected, but the
		// adapter's confidence is kept for audit.
		return Result{
			Category:   models.CategoryOther,
			Type:       r.txType(in),
			Confidence: classification.Confidence,
			Source:     SourceAI,
		}
	}

	txType := classification.Type
	if txType == "" {
		txType = r.txType(in)
	}
	return Result{
		Category:   classification.Category,
		Type:       txType,
		Confidence: classification.Confidence,
		Source:     SourceAI,
		AIAccepted: true,
	}
}

// txType prefers the platform's explicit direction label over sign
// inference.
func (r *Resolver) txType(in Input) models.TxType {
	if in.Direction != "" {
		return in.Direction
	}
	return models.TypeFromAmount(in.Amount)
}

// Threshold returns the resolver's acceptance threshold.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
