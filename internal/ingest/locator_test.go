package ingest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func testScanner(t *testing.T) *Scanner {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScanner(15, []string{"utf-8", "latin1", "cp1252"}, logger)
}

func writeFile(t *testing.T, name string, data []byte) RawFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return RawFile{Path: path, Rel: name}
}

func TestLocateHeaderAfterBlankRows(t *testing.T) {
	data := []byte(",,\n,,\nTenor,Mid Rate,Change\n3M,11.02,0.01\n6M,11.10,-0.02\n1Y,11.25,0.00\n")
	f := writeFile(t, "pkrv_20240102.csv", data)

	loc, ok := testScanner(t).Locate(f)
	require.True(t, ok)
	assert.Equal(t, 2, loc.Row)
	assert.Equal(t, NewTokenSet("Tenor", "Mid Rate", "Change"), loc.Tokens)
	assert.Equal(t, FormatTenorRates, Classify(DefaultFingerprints(), loc.Tokens))
}

func TestLocateHeaderAtFirstRow(t *testing.T) {
	data := []byte("security,issue date,maturity date,coupon frequency\nPIB-1,2020-01-01,2030-01-01,Semi-Annual\n")
	f := writeFile(t, "pkfrv.csv", data)

	loc, ok := testScanner(t).Locate(f)
	require.True(t, ok)
	assert.Equal(t, 0, loc.Row)
	assert.Equal(t, FormatMutualFund, Classify(DefaultFingerprints(), loc.Tokens))
}

// The same logical header must be located at the same row whichever
// supported encoding the file was saved in.
func TestLocateEncodingIndependent(t *testing.T) {
	// Non-ASCII metadata line above the header exercises the decoders.
	// Its first cell is blank so it is never mistaken for a header.
	text := ",Résumé des taux,\nTenor,Mid Rate,Change\n3M,11.02,0.01\n"

	latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
	require.NoError(t, err)

	variants := map[string][]byte{
		"utf8.csv":    []byte(text),
		"utf8bom.csv": append([]byte{0xEF, 0xBB, 0xBF}, []byte(text)...),
		"latin1.csv":  []byte(latin1),
	}

	for name, data := range variants {
		t.Run(name, func(t *testing.T) {
			f := writeFile(t, name, data)
			loc, ok := testScanner(t).Locate(f)
			require.True(t, ok)
			assert.Equal(t, 1, loc.Row)
			assert.Equal(t, FormatTenorRates, Classify(DefaultFingerprints(), loc.Tokens))
		})
	}
}

func TestLocateRejectsBlankLeadingCell(t *testing.T) {
	// Every row starts blank, so no candidate is acceptable.
	data := []byte(",Tenor,Mid Rate\n,3M,11.02\n")
	f := writeFile(t, "ragged.csv", data)

	_, ok := testScanner(t).Locate(f)
	assert.False(t, ok)
}

func TestLocateEmptyFile(t *testing.T) {
	f := writeFile(t, "empty.csv", []byte(""))
	_, ok := testScanner(t).Locate(f)
	assert.False(t, ok)
}

func TestLocateUnsupportedExtension(t *testing.T) {
	f := writeFile(t, "notes.txt", []byte("Tenor,Mid Rate,Change\n"))
	_, ok := testScanner(t).Locate(f)
	assert.False(t, ok)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{name: "comma", data: "a,b,c\n1,2,3\n", want: ','},
		{name: "semicolon", data: "a;b;c\n1;2;3\n", want: ';'},
		{name: "tab", data: "a\tb\tc\n", want: '\t'},
		{name: "pipe", data: "a|b|c\n", want: '|'},
		{name: "comma wins ties", data: "a\n", want: ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter([]byte(tt.data)))
		})
	}
}
