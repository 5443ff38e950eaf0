// Package flows matches transactions against a catalog of named financial
// flows (rent collection, owner distribution, ...) so downstream automation
// can trigger on what a transaction means rather than what it says.
package flows

import (
	"fmt"
	"os"

	"propfin/ledger-sync/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultCatalog is the built-in flow catalog. Read-only at runtime.
func DefaultCatalog() []models.FinancialFlowTemplate {
	return []models.FinancialFlowTemplate{
		{
			ID:               "rent-collection",
			Name:             "Rent Collection",
			Category:         models.CategoryRent,
			Type:             models.TypeIncome,
			Accounts:         models.FlowAccounts{Source: "tenant", Destination: "operating"},
			RequiresProperty: true,
			Recurrence:       models.RecurrenceMonthly,
		},
		{
			ID:         "rent-income-unassigned",
			Name:       "Rent Income (no property)",
			Category:   models.CategoryRent,
			Type:       models.TypeIncome,
			Accounts:   models.FlowAccounts{Source: "tenant", Destination: "operating"},
			Recurrence: models.RecurrenceMonthly,
		},
		{
			ID:               "security-deposit",
			Name:             "Security Deposit",
			Category:         models.CategoryOther,
			Type:             models.TypeIncome,
			Accounts:         models.FlowAccounts{Source: "tenant", Destination: "escrow"},
			RequiresProperty: true,
			Recurrence:       models.RecurrenceNone,
		},
		{
			ID:         "late-fee",
			Name:       "Late Fee",
			Category:   models.CategoryOther,
			Type:       models.TypeIncome,
			Accounts:   models.FlowAccounts{Source: "tenant", Destination: "operating"},
			Recurrence: models.RecurrenceNone,
		},
		{
			ID:               "maintenance-job",
			Name:             "Maintenance Job",
			Category:         models.CategoryMaintenance,
			Type:             models.TypeExpense,
			Accounts:         models.FlowAccounts{Source: "operating", Destination: "vendor"},
			RequiresProperty: true,
			Recurrence:       models.RecurrenceNone,
		},
		{
			ID:         "general-upkeep",
			Name:       "General Upkeep",
			Category:   models.CategoryMaintenance,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "vendor"},
			Recurrence: models.RecurrenceNone,
		},
		{
			ID:         "utility-payment",
			Name:       "Utility Payment",
			Category:   models.CategoryUtilities,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "utility-provider"},
			Recurrence: models.RecurrenceMonthly,
		},
		{
			ID:         "mortgage-payment",
			Name:       "Mortgage Payment",
			Category:   models.CategoryMortgage,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "lender"},
			Recurrence: models.RecurrenceMonthly,
		},
		{
			ID:         "insurance-premium",
			Name:       "Insurance Premium",
			Category:   models.CategoryInsurance,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "insurer"},
			Recurrence: models.RecurrenceAnnual,
		},
		{
			ID:         "tax-payment",
			Name:       "Property Tax Payment",
			Category:   models.CategoryTaxes,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "tax-authority"},
			Recurrence: models.RecurrenceAnnual,
		},
		{
			ID:         "owner-distribution",
			Name:       "Owner Distribution",
			Category:   models.CategoryOther,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "owner"},
			Recurrence: models.RecurrenceMonthly,
		},
		{
			ID:         "cleaning-service",
			Name:       "Cleaning Service",
			Category:   models.CategoryCleaning,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "vendor"},
			Recurrence: models.RecurrenceMonthly,
		},
		{
			ID:         "listing-spend",
			Name:       "Listing & Advertising Spend",
			Category:   models.CategoryMarketing,
			Type:       models.TypeExpense,
			Accounts:   models.FlowAccounts{Source: "operating", Destination: "ad-platform"},
			Recurrence: models.RecurrenceNone,
		},
	}
}

// LoadCatalog reads a flow catalog from a YAML file. Used when an operator
// maintains a custom catalog; the built-in one is the fallback.
func LoadCatalog(path string) ([]models.FinancialFlowTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading flow catalog: %w", err)
	}

	var f struct {
		Flows []models.FinancialFlowTemplate `yaml:"flows"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing flow catalog: %w", err)
	}
	if len(f.Flows) == 0 {
		return nil, fmt.Errorf("flow catalog %s contains no flows", path)
	}
	return f.Flows, nil
}
