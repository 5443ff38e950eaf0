// Package reconcile computes cross-platform reconciliation reports: live
// per-platform totals for a period, plus a discrepancy list produced by
// matching canonical transactions against each platform's own records.
//
// Two transactions pair up when their rounded amounts agree, their dates lie
// within two days of each other, and their normalized descriptions share
// enough tokens. Everything without a pair on the opposite side is reported
// unmatched; matched pairs surface only when their exact amounts differ.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propfin/ledger-sync/internal/connector"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"
	"propfin/ledger-sync/internal/store"

	"github.com/shopspring/decimal"
)

// dateWindow is how far apart a matched pair's dates may be.
const dateWindow = 48 * time.Hour

// tokenOverlapThreshold is the minimum shared fraction of the smaller token
// set for two descriptions to be considered the same event.
const tokenOverlapThreshold = 0.5

// Engine reconciles the canonical store against live platform data.
type Engine struct {
	store      store.Store
	connectors map[models.Platform]connector.Connector
	logger     logging.Logger
}

// New creates a reconciliation Engine over the given platform connectors.
func New(st store.Store, connectors map[models.Platform]connector.Connector, logger logging.Logger) *Engine {
	return &Engine{
		store:      st,
		connectors: connectors,
		logger:     logger,
	}
}

// Reconcile builds the report for one period. Platform fetch failures are
// counted and logged; the report always covers whatever data was reachable.
func (e *Engine) Reconcile(ctx context.Context, period models.Period) (models.ReconciliationReport, error) {
	report := models.ReconciliationReport{
		Period:      period,
		Totals:      make(map[models.Platform]decimal.Decimal),
		GeneratedAt: time.Now().UTC(),
	}

	canonical, err := e.store.GetByDateRange(ctx, period.Start, period.End, "")
	if err != nil {
		return report, fmt.Errorf("loading canonical transactions: %w", err)
	}
	report.Totals[models.PlatformCanonical] = sumTransactions(canonical)

	for platform, conn := range e.connectors {
		natives, err := e.fetchPlatform(ctx, conn, period)
		if err != nil {
			e.logger.WithError(err).WithField("platform", platform).
				Warn("Skipping platform in reconciliation")
			report.Errors++
			continue
		}

		report.Totals[platform] = sumNatives(natives)

		mine := filterBySource(canonical, platform)
		report.Discrepancies = append(report.Discrepancies, matchSides(platform, mine, natives)...)
	}

	e.logger.Info("Reconciliation finished",
		logging.F("platforms", len(e.connectors)),
		logging.F("discrepancies", len(report.Discrepancies)),
		logging.F("errors", report.Errors))
	return report, nil
}

// fetchPlatform pulls a platform's transactions for the period across all
// of its accounts.
func (e *Engine) fetchPlatform(ctx context.Context, conn connector.Connector, period models.Period) ([]models.NativeTransaction, error) {
	accounts, err := conn.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.NativeTransaction
	for _, account := range accounts {
		natives, err := conn.ListTransactions(ctx, account, period.Start.Add(-time.Nanosecond))
		if err != nil {
			return nil, err
		}
		for _, n := range natives {
			if period.Contains(n.Date) {
				all = append(all, n)
			}
		}
	}
	return all, nil
}

// matchSides pairs canonical transactions with platform natives and emits
// the discrepancy list for one platform.
func matchSides(platform models.Platform, canonical []models.Transaction, natives []models.NativeTransaction) []models.Discrepancy {
	var out []models.Discrepancy

	// Bucket natives by rounded amount so candidate pairs are cheap to find.
	buckets := make(map[string][]int)
	for i, n := range natives {
		buckets[amountKey(n.Amount)] = append(buckets[amountKey(n.Amount)], i)
	}
	usedNative := make(map[int]bool)

	for _, tx := range canonical {
		matchedIdx := -1
		for _, i := range buckets[amountKey(tx.Amount)] {
			if usedNative[i] {
				continue
			}
			n := natives[i]
			if !withinWindow(tx.Date, n.Date) {
				continue
			}
			if tokenOverlap(tx.Description, n.Description) < tokenOverlapThreshold {
				continue
			}
			matchedIdx = i
			break
		}

		if matchedIdx == -1 {
			out = append(out, models.Discrepancy{
				Platform:    models.PlatformCanonical,
				Description: tx.Description,
				Amount:      tx.Amount,
				Matched:     false,
				Note:        fmt.Sprintf("no %s counterpart", platform),
			})
			continue
		}

		usedNative[matchedIdx] = true
		n := natives[matchedIdx]
		if !tx.Amount.Equal(n.Amount) {
			out = append(out, models.Discrepancy{
				Platform:    platform,
				Description: tx.Description,
				Amount:      tx.Amount,
				Matched:     true,
				Note: fmt.Sprintf("amount variance: canonical %s vs %s %s",
					tx.Amount.String(), platform, n.Amount.String()),
			})
		}
	}

	for i, n := range natives {
		if !usedNative[i] {
			out = append(out, models.Discrepancy{
				Platform:    platform,
				Description: n.Description,
				Amount:      n.Amount,
				Matched:     false,
				Note:        "no canonical counterpart",
			})
		}
	}

	return out
}

func amountKey(amount decimal.Decimal) string {
	return amount.Round(0).String()
}

func withinWindow(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= dateWindow
}

// tokenOverlap computes the shared fraction of the smaller normalized token
// set of two descriptions.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for t := range setB {
		if setA[t] {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared) / float64(smaller)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range normalizeTokens(s) {
		set[t] = true
	}
	return set
}

// filterBySource keeps canonical transactions that originated on the given
// platform so each side of a comparison only sees its own records.
func filterBySource(txs []models.Transaction, platform models.Platform) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if tx.ExternalSource == platform {
			out = append(out, tx)
		}
	}
	return out
}

// normalizeTokens uppercases, strips punctuation, and splits a description
// into words.
func normalizeTokens(s string) []string {
	s = strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func sumTransactions(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

func sumNatives(natives []models.NativeTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, n := range natives {
		total = total.Add(n.Amount)
	}
	return total
}
