package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RawFile is one file under scan. Path is absolute; Rel is the path
// relative to the configured base directory and is what gets stored as
// the source filepath (and later used to build download references).
type RawFile struct {
	Path string
	Rel  string
}

// Name returns the bare filename, the key into the metadata cache.
func (f RawFile) Name() string {
	return filepath.Base(f.Path)
}

// Ext returns the lower-cased file extension including the dot.
func (f RawFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// IsCSV reports whether the file is a CSV source.
func (f RawFile) IsCSV() bool {
	return f.Ext() == ".csv"
}

var (
	errEmptyData   = errors.New("no rows in file")
	errBadEncoding = errors.New("byte stream is not valid in this encoding")
)

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// decoderFor returns the text decoder for a configured encoding name.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		// Strips a leading BOM if present.
		return unicode.UTF8BOM.NewDecoder(), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// sniffDelimiter picks the separator that splits the first non-empty
// line into the most fields. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

// readRows reads up to maxRows rows of a file after discarding skip
// leading rows. maxRows <= 0 means read everything. For CSV sources the
// bytes are decoded with the named encoding and the delimiter is
// sniffed; Excel sources ignore the encoding name entirely.
func readRows(f RawFile, encodingName string, skip, maxRows int) ([][]string, error) {
	var rows [][]string
	var err error

	switch f.Ext() {
	case ".csv":
		rows, err = readCSVRows(f.Path, encodingName)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(f.Path)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", f.Ext())
	}
	if err != nil {
		return nil, err
	}

	if skip >= len(rows) {
		return nil, errEmptyData
	}
	rows = rows[skip:]
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}

func readCSVRows(path, encodingName string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errEmptyData
	}

	// The UTF-8 decoder substitutes U+FFFD instead of failing, which
	// would let a single-byte-codepage file "succeed" here and corrupt
	// its non-ASCII cells. Reject invalid input up front so the caller
	// moves on to the next candidate encoding.
	if isUTF8(encodingName) && !utf8.Valid(raw) {
		return nil, fmt.Errorf("decode %s: %w", encodingName, errBadEncoding)
	}

	dec, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), dec))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", encodingName, err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = sniffDelimiter(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errEmptyData
	}
	return rows, nil
}

func readExcelRows(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptyData
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errEmptyData
	}
	return rows, nil
}
