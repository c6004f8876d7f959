package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"mufapcli/internal/metadata"
)

func TestNormalizeTenorProvenance(t *testing.T) {
	data := []byte("tenor,mid rate,change\n3M,11.02,0.01\n6M,11.10,-0.02\n")
	f := writeFile(t, "pkrv_20240102.csv", data)
	prov := metadata.Provenance{ReportDate: "02-Jan-2024", Title: "PKRV Rates"}

	set, err := testScanner(t).Normalize(f, 0, FormatTenorRates, prov)
	require.NoError(t, err)

	assert.Equal(t, FormatTenorRates, set.Format)
	assert.Equal(t, []string{"Tenor", "Mid Rate", "Change", TenorDateColumn, TenorPathColumn}, set.Columns)
	require.Len(t, set.Records, 2)

	first := set.Records[0]
	assert.Equal(t, "3M", first["Tenor"])
	assert.Equal(t, "11.02", first["Mid Rate"])
	assert.Equal(t, "02-Jan-2024", first[TenorDateColumn])
	assert.Equal(t, "pkrv_20240102.csv", first[TenorPathColumn])
}

func TestNormalizeMutualFundProvenanceNaming(t *testing.T) {
	data := []byte("security,issue date,maturity date,coupon frequency\nPIB-1,01-Jan-2020,01-Jan-2030,Semi-Annual\n")
	f := writeFile(t, "pkfrv_20240102.csv", data)

	set, err := testScanner(t).Normalize(f, 0, FormatMutualFund, metadata.Provenance{
		ReportDate: metadata.NotAvailable,
		Title:      metadata.NotAvailable,
	})
	require.NoError(t, err)

	assert.True(t, set.HasColumn(MutualFundDateColumn))
	assert.True(t, set.HasColumn(MutualFundPathColumn))
	assert.False(t, set.HasColumn(TenorDateColumn))

	rec := set.Records[0]
	assert.Equal(t, metadata.NotAvailable, rec[MutualFundDateColumn])
	assert.Equal(t, "pkfrv_20240102.csv", rec[MutualFundPathColumn])
}

// A single-byte-codepage file must not pass as UTF-8 with its
// non-ASCII cells replaced; the fallback decoders have to kick in.
func TestNormalizeWindows1252Values(t *testing.T) {
	text := "security,issue date,maturity date,coupon frequency\nCrédit Note,01-Jan-2020,01-Jan-2030,Semi-Annual\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)
	f := writeFile(t, "pkfrv_cp1252.csv", []byte(encoded))

	set, err := testScanner(t).Normalize(f, 0, FormatMutualFund, metadata.Provenance{})
	require.NoError(t, err)
	require.Len(t, set.Records, 1)

	got := set.Records[0]["Security"]
	assert.Equal(t, "Crédit Note", got)
	assert.NotContains(t, got, "�")
}

func TestNormalizeSkipsHeaderPrefix(t *testing.T) {
	data := []byte(",,\n,,\nTenor,Mid Rate,Change\n3M,11.02,0.01\n")
	f := writeFile(t, "offset.csv", data)

	set, err := testScanner(t).Normalize(f, 2, FormatTenorRates, metadata.Provenance{})
	require.NoError(t, err)
	require.Len(t, set.Records, 1)
	assert.Equal(t, "3M", set.Records[0]["Tenor"])
}

func TestNormalizeBlankHeaderCellsGetPositionalNames(t *testing.T) {
	data := []byte("Tenor,,Change\n3M,x,0.01\n")
	f := writeFile(t, "blankcol.csv", data)

	set, err := testScanner(t).Normalize(f, 0, FormatTenorRates, metadata.Provenance{})
	require.NoError(t, err)
	assert.Contains(t, set.Columns, "Unnamed: 1")
	assert.Equal(t, "x", set.Records[0]["Unnamed: 1"])
}

func TestNormalizeDropsBlankRowsAndTrimsCells(t *testing.T) {
	data := []byte("Tenor,Mid Rate,Change\n 3M , 11.02 ,0.01\n,,\n6M,11.10,-0.02\n")
	f := writeFile(t, "blanks.csv", data)

	set, err := testScanner(t).Normalize(f, 0, FormatTenorRates, metadata.Provenance{})
	require.NoError(t, err)
	require.Len(t, set.Records, 2)
	assert.Equal(t, "3M", set.Records[0]["Tenor"])
	assert.Equal(t, "11.02", set.Records[0]["Mid Rate"])
	assert.Equal(t, "6M", set.Records[1]["Tenor"])
}

func TestNormalizeShortRowLeavesCellsAbsent(t *testing.T) {
	data := []byte("Tenor;Mid Rate;Change\n3M;11.02\n")
	f := writeFile(t, "short.csv", data)

	set, err := testScanner(t).Normalize(f, 0, FormatTenorRates, metadata.Provenance{})
	require.NoError(t, err)
	require.Len(t, set.Records, 1)

	_, ok := set.Records[0]["Change"]
	assert.False(t, ok)
}
