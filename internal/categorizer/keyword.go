package categorizer

import (
	"strings"

	"propfin/ledger-sync/internal/models"
)

// keywordConfidence is recorded for keyword-heuristic matches. Deterministic
// but less certain than an explicit mapping-table entry.
const keywordConfidence = 0.9

// keywordRule pairs a canonical category with its description/vendor
// fragments. Matching is case-insensitive substring.
type keywordRule struct {
	category models.Category
	keywords []string
}

// keywordRules is the fixed heuristic table. Order matters: the first
// matching category wins, so rent outranks maintenance, maintenance
// outranks utilities, and so on down the table.
var keywordRules = []keywordRule{
	{models.CategoryRent, []string{
		"rent", "lease payment",
	}},
	{models.CategoryMaintenance, []string{
		"repair", "maintenance", "plumb", "hvac",
		"home depot", "lowes", "lowe's", "ace hardware", "true value",
	}},
	{models.CategoryUtilities, []string{
		"utility", "utilities", "electric", "water bill", "sewer",
		"pg&e", "con edison", "coned", "duke energy", "national grid",
		"comcast", "xfinity", "internet service",
	}},
	{models.CategoryInsurance, []string{
		"insurance",
	}},
	{models.CategoryTaxes, []string{
		"tax",
	}},
	{models.CategoryMortgage, []string{
		"mortgage", "loan payment",
	}},
	{models.CategorySupplies, []string{
		"supplies", "office depot", "staples", "uline",
	}},
	{models.CategoryCleaning, []string{
		"clean",
	}},
	{models.CategoryMarketing, []string{
		"advertis", "marketing", "google ads", "facebook ads", "zillow", "craigslist",
	}},
}

// matchKeywords scans description and vendor against the keyword table and
// returns the first matching category.
func matchKeywords(description, vendor string) (models.Category, bool) {
	haystack := strings.ToLower(description + " " + vendor)
	if strings.TrimSpace(haystack) == "" {
		return "", false
	}

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
