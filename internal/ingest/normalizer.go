package ingest

import (
	"fmt"
	"strings"

	"mufapcli/internal/metadata"
)

// Provenance column names differ between the two formats and are part
// of the store's public column contract; downstream consumers query by
// these exact strings.
const (
	TenorDateColumn      = "report_date"
	TenorPathColumn      = "source_filepath"
	MutualFundDateColumn = "Report_Date"
	MutualFundPathColumn = "Source_Filepath"
)

// Record maps canonical column names to raw cell values. A key absent
// from the map means the cell was missing in that row.
type Record map[string]string

// FileRecordSet is the normalized content of one source file.
type FileRecordSet struct {
	File    RawFile
	Format  Format
	Columns []string
	Records []Record
}

// HasColumn reports whether the set's schema includes the column.
func (s *FileRecordSet) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize re-reads a file in full with headerRow as the header,
// canonicalizes every column name and appends the two provenance
// columns under the format's naming. Blank data rows are dropped.
func (s *Scanner) Normalize(f RawFile, headerRow int, format Format, prov metadata.Provenance) (*FileRecordSet, error) {
	rows, err := s.readFrom(f, headerRow)
	if err != nil {
		return nil, fmt.Errorf("read %s from row %d: %w", f.Name(), headerRow, err)
	}

	header := canonicalHeader(rows[0])

	dateCol, pathCol := TenorDateColumn, TenorPathColumn
	if format == FormatMutualFund {
		dateCol, pathCol = MutualFundDateColumn, MutualFundPathColumn
	}
	columns := append(append([]string{}, header...), dateCol, pathCol)

	set := &FileRecordSet{File: f, Format: format, Columns: columns}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(Record, len(header)+2)
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			}
		}
		rec[dateCol] = prov.ReportDate
		rec[pathCol] = f.Rel
		set.Records = append(set.Records, rec)
	}
	return set, nil
}

// readFrom reads the whole file starting at headerRow, retrying the
// configured encodings in order for CSV sources.
func (s *Scanner) readFrom(f RawFile, headerRow int) ([][]string, error) {
	encodings := s.encodings
	if !f.IsCSV() {
		encodings = encodings[:1]
	}
	var lastErr error
	for _, enc := range encodings {
		rows, err := readRows(f, enc, headerRow, 0)
		if err != nil {
			lastErr = err
			continue
		}
		return rows, nil
	}
	return nil, lastErr
}

// canonicalHeader canonicalizes header cells, naming blank cells after
// their position so they survive into the table (and are later excluded
// from display by the column resolver).
func canonicalHeader(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		name := Canonicalize(cell)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = name
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
