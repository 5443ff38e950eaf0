package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in    string
		want  Category
		known bool
	}{
		{"rent", CategoryRent, true},
		{"  Maintenance ", CategoryMaintenance, true},
		{"UTILITIES", CategoryUtilities, true},
		{"other", CategoryOther, true},
		{"groceries", CategoryOther, false},
		{"", CategoryOther, false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.known, ok, "input %q", tt.in)
	}
}

func TestTypeFromAmount(t *testing.T) {
	assert.Equal(t, TypeIncome, TypeFromAmount(decimal.NewFromInt(1500)))
	assert.Equal(t, TypeExpense, TypeFromAmount(decimal.NewFromInt(-120)))
	assert.Equal(t, TypeExpense, TypeFromAmount(decimal.Zero))
}

func TestNaturalKey(t *testing.T) {
	tx := Transaction{ExternalID: "bt-7", ExternalSource: PlatformBank}
	assert.Equal(t, "bank/bt-7", tx.NaturalKey())
	assert.False(t, tx.IsManual())

	manual := Transaction{}
	assert.Empty(t, manual.NaturalKey())
	assert.True(t, manual.IsManual())
}

func TestPeriodContainsIsHalfOpen(t *testing.T) {
	p := Period{
		Start: date(2024, 1, 1),
		End:   date(2024, 2, 1),
	}
	assert.True(t, p.Contains(date(2024, 1, 1)), "start is inclusive")
	assert.True(t, p.Contains(date(2024, 1, 31)))
	assert.False(t, p.Contains(date(2024, 2, 1)), "end is exclusive")
	assert.False(t, p.Contains(date(2023, 12, 31)))
}
