package flows

import (
	"context"
	"strings"

	"propfin/ledger-sync/internal/categorizer"
	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/shopspring/decimal"
)

// Draft is a transaction sketch to identify a flow for. It may come from a
// stored canonical transaction or from unsaved user input.
type Draft struct {
	Description    string
	Amount         decimal.Decimal
	Vendor         string
	PropertyID     string
	SourcePlatform models.Platform
	NativeCategory string
}

// tieBreaks maps description fragments to the template they disambiguate
// toward, checked in order.
var tieBreaks = []struct {
	fragment   string
	templateID string
}{
	{"rent", "rent-collection"},
	{"repair", "maintenance-job"},
	{"maintenance", "maintenance-job"},
	{"utility", "utility-payment"},
	{"electric", "utility-payment"},
	{"water", "utility-payment"},
	{"deposit", "security-deposit"},
	{"late fee", "late-fee"},
}

// Identifier matches drafts against the flow catalog.
type Identifier struct {
	catalog  []models.FinancialFlowTemplate
	resolver *categorizer.Resolver
	logger   logging.Logger
}

// NewIdentifier creates an Identifier over the given catalog.
func NewIdentifier(catalog []models.FinancialFlowTemplate, resolver *categorizer.Resolver, logger logging.Logger) *Identifier {
	return &Identifier{
		catalog:  catalog,
		resolver: resolver,
		logger:   logger,
	}
}

// Identify returns the flow template the draft most plausibly belongs to,
// or nil when no template matches its category and type.
func (f *Identifier) Identify(ctx context.Context, draft Draft) *models.FinancialFlowTemplate {
	resolved := f.resolver.Resolve(ctx, categorizer.Input{
		Description:    draft.Description,
		Amount:         draft.Amount,
		Vendor:         draft.Vendor,
		SourcePlatform: draft.SourcePlatform,
		NativeCategory: draft.NativeCategory,
	})

	var candidates []models.FinancialFlowTemplate
	for _, tpl := range f.catalog {
		if tpl.Category == resolved.Category && tpl.Type == resolved.Type {
			candidates = append(candidates, tpl)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// A draft bound to a property prefers property-scoped templates.
	if len(candidates) > 1 && draft.PropertyID != "" {
		var scoped []models.FinancialFlowTemplate
		for _, tpl := range candidates {
			if tpl.RequiresProperty {
				scoped = append(scoped, tpl)
			}
		}
		if len(scoped) > 0 {
			candidates = scoped
		}
	}

	if len(candidates) > 1 {
		needle := strings.ToLower(draft.Description)
		for _, tb := range tieBreaks {
			if !strings.Contains(needle, tb.fragment) {
				continue
			}
			for _, tpl := range candidates {
				if tpl.ID == tb.templateID {
					return &tpl
				}
			}
		}
	}

	f.logger.Debug("Identified flow",
		logging.F("flow", candidates[0].ID),
		logging.F("category", resolved.Category))
	return &candidates[0]
}
