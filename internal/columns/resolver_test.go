package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOrdering(t *testing.T) {
	live := []string{
		"unique_id", "Change", "Mid Rate", "Tenor",
		"report_date", "source_filepath",
	}
	got := Resolve(live, PreferredTenor)
	assert.Equal(t, []string{"Tenor", "Mid Rate", "Change"}, got)
}

func TestResolveRemainderIsSorted(t *testing.T) {
	live := []string{
		"Security", "Coupon Frequency", "Face Value", "Issue Date",
		"Maturity Date", "Report_Date", "Source_Filepath", "unique_id",
	}
	got := Resolve(live, PreferredMutualFund)
	assert.Equal(t, []string{
		"Issue Date", "Maturity Date", "Coupon Frequency",
		"Face Value", "Security",
	}, got)
}

func TestResolveExclusions(t *testing.T) {
	tests := []struct {
		name string
		col  string
	}{
		{name: "surrogate key", col: "unique_id"},
		{name: "tenor date column", col: "report_date"},
		{name: "tenor path column", col: "source_filepath"},
		{name: "mutual fund date column", col: "Report_Date"},
		{name: "mutual fund path column", col: "Source_Filepath"},
		{name: "unnamed artifact", col: "Unnamed: 3"},
		{name: "empty", col: ""},
		{name: "bom artifact", col: "\uFEFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve([]string{"Tenor", tt.col}, nil)
			assert.Equal(t, []string{"Tenor"}, got)
		})
	}
}

func TestResolvePreferredMatchIsCaseInsensitive(t *testing.T) {
	got := Resolve([]string{"ISSUE DATE", "Other"}, PreferredMutualFund)
	assert.Equal(t, []string{"ISSUE DATE", "Other"}, got)
}

func TestResolveMissingPreferredColumnsSkipped(t *testing.T) {
	got := Resolve([]string{"Maturity Date", "Zeta"}, PreferredMutualFund)
	assert.Equal(t, []string{"Maturity Date", "Zeta"}, got)
}

func TestResolveIdempotent(t *testing.T) {
	live := []string{
		"Security", "Issue Date", "unique_id", "Unnamed: 0",
		"Maturity Date", "Coupon Frequency", "Report_Date",
	}
	once := Resolve(live, PreferredMutualFund)
	twice := Resolve(once, PreferredMutualFund)
	assert.Equal(t, once, twice)
}

func TestResolveEmpty(t *testing.T) {
	assert.Empty(t, Resolve(nil, PreferredTenor))
	assert.Empty(t, Resolve([]string{"unique_id"}, PreferredTenor))
}
