package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format identifies a known record format.
type Format string

const (
	// FormatTenorRates is the fixed-schema PKRV tenor rate format.
	FormatTenorRates Format = "PKRV"
	// FormatMutualFund is the variable-schema PKFRV mutual fund format.
	FormatMutualFund Format = "PKFRV"
	// FormatUnknown means the header matched no fingerprint.
	FormatUnknown Format = ""
)

// MatchRule controls how a fingerprint's column set is compared against
// a detected header.
type MatchRule int

const (
	// MatchExact requires the header's token set to equal the
	// fingerprint's column set exactly.
	MatchExact MatchRule = iota
	// MatchSubset requires the fingerprint's column set to be contained
	// in the header's token set; extra columns are allowed.
	MatchSubset
)

// Fingerprint is a named set of canonical column names that identifies
// a record format.
type Fingerprint struct {
	Format  Format
	Rule    MatchRule
	Columns []string
}

// DefaultFingerprints returns the shipped format definitions.
func DefaultFingerprints() []Fingerprint {
	return []Fingerprint{
		{
			Format:  FormatTenorRates,
			Rule:    MatchExact,
			Columns: []string{"Tenor", "Mid Rate", "Change"},
		},
		{
			Format:  FormatMutualFund,
			Rule:    MatchSubset,
			Columns: []string{"Issue Date", "Maturity Date", "Coupon Frequency"},
		},
	}
}

// TokenSet is a set of canonical column-name tokens.
type TokenSet map[string]struct{}

// NewTokenSet builds a TokenSet from already-canonical names.
func NewTokenSet(names ...string) TokenSet {
	s := make(TokenSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Canonicalize trims a raw header cell and title-cases every word, so
// "mid rate ", "MID RATE" and "Mid Rate" all compare equal.
func Canonicalize(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

func (s TokenSet) equals(names []string) bool {
	if len(s) != len(names) {
		return false
	}
	return s.containsAll(names)
}

func (s TokenSet) containsAll(names []string) bool {
	for _, n := range names {
		if _, ok := s[n]; !ok {
			return false
		}
	}
	return true
}

// Classify returns the format of the first fingerprint matching the
// token set. Exact-match fingerprints are evaluated before subset-match
// ones so a header satisfying both resolves deterministically.
func Classify(fingerprints []Fingerprint, tokens TokenSet) Format {
	for _, rule := range []MatchRule{MatchExact, MatchSubset} {
		for _, fp := range fingerprints {
			if fp.Rule != rule {
				continue
			}
			switch rule {
			case MatchExact:
				if tokens.equals(fp.Columns) {
					return fp.Format
				}
			case MatchSubset:
				if tokens.containsAll(fp.Columns) {
					return fp.Format
				}
			}
		}
	}
	return FormatUnknown
}
