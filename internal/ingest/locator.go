package ingest

import (
	"errors"
	"log/slog"
	"strings"
)

// Scanner locates header rows and reads normalized records out of raw
// report files. All tunables are injected at construction; there is no
// package-level state.
type Scanner struct {
	maxScanRows int
	encodings   []string
	logger      *slog.Logger
}

// NewScanner creates a scanner that searches the first maxScanRows rows
// of each file under the given candidate encodings, in order.
func NewScanner(maxScanRows int, encodings []string, logger *slog.Logger) *Scanner {
	return &Scanner{
		maxScanRows: maxScanRows,
		encodings:   encodings,
		logger:      logger.With(slog.String("component", "scanner")),
	}
}

// HeaderLocation is a successfully detected header row.
type HeaderLocation struct {
	Row    int
	Tokens TokenSet
}

type attempt struct {
	skip     int
	encoding string
}

// attempts yields the (skip, encoding) search space in preference
// order. Excel files are encoding-agnostic, so they get a single
// encoding pass per skip.
func (s *Scanner) attempts(f RawFile) []attempt {
	encodings := s.encodings
	if !f.IsCSV() {
		encodings = encodings[:1]
	}
	out := make([]attempt, 0, s.maxScanRows*len(encodings))
	for skip := 0; skip < s.maxScanRows; skip++ {
		for _, enc := range encodings {
			out = append(out, attempt{skip: skip, encoding: enc})
		}
	}
	return out
}

// Locate scans a file for its real header row and returns the row index
// and the canonical token set found there. The second return is false
// when no candidate in the scan window is acceptable; that is a
// per-file skip signal, not an error.
func (s *Scanner) Locate(f RawFile) (HeaderLocation, bool) {
	for _, at := range s.attempts(f) {
		loc, ok, err := s.candidate(f, at)
		if err != nil {
			// Encoding and empty-data failures are expected while
			// probing; anything else is still only worth a log line.
			if !errors.Is(err, errEmptyData) && !errors.Is(err, errBadEncoding) {
				s.logger.Debug("header probe failed",
					slog.String("file", f.Name()),
					slog.Int("skip", at.skip),
					slog.String("encoding", at.encoding),
					slog.String("error", err.Error()))
			}
			continue
		}
		if ok {
			return loc, true
		}
	}
	return HeaderLocation{}, false
}

// candidate evaluates a single (skip, encoding) pair: parse a one-row
// preview, canonicalize the cells and accept the row if it looks like a
// real header.
func (s *Scanner) candidate(f RawFile, at attempt) (HeaderLocation, bool, error) {
	rows, err := readRows(f, at.encoding, at.skip, 1)
	if err != nil {
		return HeaderLocation{}, false, err
	}

	row := rows[0]
	// A header must start with a named column; single-column "Unnamed"
	// artifacts from ragged exports start blank. A cell holding only a
	// byte order mark counts as blank too.
	if len(row) == 0 || strings.TrimSpace(stripBOMArtifact(row[0])) == "" {
		return HeaderLocation{}, false, nil
	}

	tokens := make(TokenSet)
	for _, cell := range row {
		cell = stripBOMArtifact(cell)
		if strings.TrimSpace(cell) == "" {
			continue
		}
		tokens[Canonicalize(cell)] = struct{}{}
	}
	if len(tokens) == 0 {
		return HeaderLocation{}, false, nil
	}

	return HeaderLocation{Row: at.skip, Tokens: tokens}, true, nil
}

// stripBOMArtifact drops a UTF-8 byte order mark that survived into a
// cell, either as U+FEFF or mis-decoded by a single-byte codepage into
// its three component characters.
func stripBOMArtifact(cell string) string {
	cell = strings.TrimPrefix(cell, "\uFEFF")
	return strings.TrimPrefix(cell, "\u00EF\u00BB\u00BF")
}
