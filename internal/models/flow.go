package models

// Recurrence describes how often a financial flow typically repeats.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceAnnual  Recurrence = "annual"
)

// FlowAccounts names the source and destination sides of a flow's accounting
// treatment. Labels, not ledger ids; ledger account resolution happens in the
// mapping table.
type FlowAccounts struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
}

// FinancialFlowTemplate is a named, reusable description of a typical
// financial event (rent collection, owner distribution, ...). The catalog of
// templates is static and read-only at runtime.
type FinancialFlowTemplate struct {
	ID               string       `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	Category         Category     `json:"category" yaml:"category"`
	Type             TxType       `json:"type" yaml:"type"`
	Accounts         FlowAccounts `json:"accounts" yaml:"accounts"`
	RequiresProperty bool         `json:"requires_property" yaml:"requires_property"`
	Recurrence       Recurrence   `json:"recurrence" yaml:"recurrence"`
}
