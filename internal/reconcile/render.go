package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"propfin/ledger-sync/internal/models"

	"github.com/gocarina/gocsv"
)

// Render writes a report in the requested format. "json" emits the whole
// report; "csv" emits the discrepancy rows only, with totals as a header
// comment block.
func Render(w io.Writer, report models.ReconciliationReport, format string) error {
	switch format {
	case "json":
		return renderJSON(w, report)
	case "csv":
		return renderCSV(w, report)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func renderJSON(w io.Writer, report models.ReconciliationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	return nil
}

func renderCSV(w io.Writer, report models.ReconciliationReport) error {
	platforms := make([]models.Platform, 0, len(report.Totals))
	for platform := range report.Totals {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	for _, platform := range platforms {
		line := fmt.Sprintf("# total %s: %s\n", platform, report.Totals[platform].String())
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("error writing report totals: %w", err)
		}
	}

	rows := report.Discrepancies
	if rows == nil {
		rows = []models.Discrepancy{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing discrepancy rows: %w", err)
	}
	return nil
}
