// Package columns decides which stored columns are presented to
// consumers and in what order. The resolution is pure: the same inputs
// always produce the same output, so the ingest report and the query
// surface cannot disagree about presentation.
package columns

import (
	"sort"
	"strings"
)

// Preferred orderings per report family. Preferred names are matched
// case-insensitively against the available columns and lead the output
// in this order; everything else follows alphabetically.
var (
	PreferredTenor      = []string{"Tenor", "Mid Rate", "Change"}
	PreferredMutualFund = []string{"Issue Date", "Maturity Date", "Coupon Frequency"}
)

// excludedExact holds internal columns never shown to consumers,
// compared in lower case. The provenance date and path columns are
// excluded under both naming variants.
var excludedExact = map[string]struct{}{
	"unique_id":       {},
	"source_filepath": {},
	"report_date":     {},
}

// Resolve filters internal and artifact columns out of available and
// orders the rest: preferred names first (in preferred's own order),
// then the remainder sorted alphabetically. Resolve is idempotent;
// feeding its output back in returns the same list.
func Resolve(available, preferred []string) []string {
	kept := make([]string, 0, len(available))
	for _, col := range available {
		if displayable(col) {
			kept = append(kept, col)
		}
	}

	index := make(map[string]int, len(kept))
	for i, col := range kept {
		index[strings.ToLower(col)] = i
	}

	used := make(map[int]bool, len(kept))
	out := make([]string, 0, len(kept))
	for _, want := range preferred {
		if i, ok := index[strings.ToLower(want)]; ok && !used[i] {
			out = append(out, kept[i])
			used[i] = true
		}
	}

	rest := make([]string, 0, len(kept)-len(out))
	for i, col := range kept {
		if !used[i] {
			rest = append(rest, col)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// displayable rejects internal identifiers, provenance columns and the
// "Unnamed" artifacts produced by blank header cells.
func displayable(col string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	if _, ok := excludedExact[lower]; ok {
		return false
	}
	if strings.Contains(lower, "unnamed") {
		return false
	}
	return true
}
