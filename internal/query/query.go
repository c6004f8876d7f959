// Package query serves paginated, searched and sorted views of the
// unified report tables for a server-driven grid. Every request is
// translated into bounded SQL; the full table is never loaded into
// memory.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"mufapcli/internal/columns"
)

// Sentinel errors surfaced to the transport layer for status mapping.
var (
	ErrUnknownReport    = errors.New("unknown report type")
	ErrTableNotFound    = errors.New("report table does not exist")
	ErrNoDisplayColumns = errors.New("no displayable columns in report table")
)

// ReportConfig binds a report identifier to its table and presentation
// rules.
type ReportConfig struct {
	ID         string
	Table      string
	Preferred  []string
	PathColumn string
}

var reportConfigs = map[string]ReportConfig{
	"pkrv": {
		ID:         "pkrv",
		Table:      "tenor_rates",
		Preferred:  columns.PreferredTenor,
		PathColumn: "source_filepath",
	},
	"pkfrv": {
		ID:         "pkfrv",
		Table:      "mutual_fund_data",
		Preferred:  columns.PreferredMutualFund,
		PathColumn: "Source_Filepath",
	},
}

// ConfigFor resolves a report identifier, case-insensitively.
func ConfigFor(id string) (ReportConfig, error) {
	cfg, ok := reportConfigs[strings.ToLower(id)]
	if !ok {
		return ReportConfig{}, fmt.Errorf("%w: %q", ErrUnknownReport, id)
	}
	return cfg, nil
}

// Request is one grid page request.
type Request struct {
	Draw        int
	Start       int
	Length      int
	Search      string
	OrderColumn int
	OrderDir    string
}

// Response is one grid page. Data rows are ordered-field maps keyed by
// display column name, plus display_filename and download_path fields
// derived from the provenance path.
type Response struct {
	Draw            int              `json:"draw"`
	RecordsTotal    int              `json:"recordsTotal"`
	RecordsFiltered int              `json:"recordsFiltered"`
	Data            []map[string]any `json:"data"`
}

// Service answers grid queries against the financial store. It is
// read-only and safe for concurrent use.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewService creates a query service over an open financial store.
func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger.With(slog.String("component", "query"))}
}

// Columns returns the display column order for a report, for grid
// initialization.
func (s *Service) Columns(ctx context.Context, reportID string) ([]string, error) {
	cfg, err := ConfigFor(reportID)
	if err != nil {
		return nil, err
	}
	live, err := s.tableColumns(ctx, cfg.Table)
	if err != nil {
		return nil, err
	}
	display := columns.Resolve(live, cfg.Preferred)
	if len(display) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDisplayColumns, cfg.Table)
	}
	return display, nil
}

// Query serves one page. Malformed paging and sort parameters fall back
// to documented defaults instead of failing; only an unknown report, a
// missing table or a table with zero display columns is an error.
func (s *Service) Query(ctx context.Context, reportID string, req Request) (*Response, error) {
	cfg, err := ConfigFor(reportID)
	if err != nil {
		return nil, err
	}
	display, err := s.Columns(ctx, reportID)
	if err != nil {
		return nil, err
	}

	req = clampRequest(req, len(display))
	where, args := searchClause(display, req.Search)

	total, err := s.count(ctx, cfg.Table, "", nil)
	if err != nil {
		return nil, err
	}
	filtered := total
	if where != "" {
		filtered, err = s.count(ctx, cfg.Table, where, args)
		if err != nil {
			return nil, err
		}
	}

	rows, err := s.page(ctx, cfg, display, req, where, args)
	if err != nil {
		return nil, err
	}

	return &Response{
		Draw:            req.Draw,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
		Data:            rows,
	}, nil
}

// clampRequest applies the fallback policies: negative start to zero,
// non-positive length to a default page, out-of-range sort index to the
// first display column, unknown direction to ascending.
func clampRequest(req Request, displayCount int) Request {
	if req.Start < 0 {
		req.Start = 0
	}
	if req.Length <= 0 {
		req.Length = 100
	}
	if req.OrderColumn < 0 || req.OrderColumn >= displayCount {
		req.OrderColumn = 0
	}
	if dir := strings.ToLower(req.OrderDir); dir != "desc" {
		req.OrderDir = "ASC"
	} else {
		req.OrderDir = "DESC"
	}
	return req
}

// searchClause builds the case-insensitive substring filter OR-ed over
// every display column, each cast to text.
func searchClause(display []string, search string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	terms := make([]string, len(display))
	args := make([]any, len(display))
	for i, col := range display {
		terms[i] = fmt.Sprintf(`CAST(%s AS TEXT) LIKE ?`, quoteIdent(col))
		args[i] = "%" + search + "%"
	}
	return "WHERE " + strings.Join(terms, " OR "), args
}

func (s *Service) count(ctx context.Context, table, where string, args []any) (int, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", table, where)
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// page fetches the bounded row range and applies per-row presentation:
// date canonicalization, the display filename and the download path.
func (s *Service) page(ctx context.Context, cfg ReportConfig, display []string, req Request, where string, args []any) ([]map[string]any, error) {
	selected := make([]string, 0, len(display)+1)
	for _, col := range display {
		selected = append(selected, quoteIdent(col))
	}
	selected = append(selected, quoteIdent(cfg.PathColumn))

	q := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY %s %s LIMIT ? OFFSET ?",
		strings.Join(selected, ", "), cfg.Table, where,
		quoteIdent(display[req.OrderColumn]), req.OrderDir)
	args = append(append([]any{}, args...), req.Length, req.Start)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", cfg.Table, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0, req.Length)
	for rows.Next() {
		values := make([]any, len(display)+1)
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", cfg.Table, err)
		}

		rec := make(map[string]any, len(display)+2)
		for i, col := range display {
			rec[col] = presentValue(col, values[i])
		}
		srcPath := stringValue(values[len(display)])
		rec["display_filename"] = path.Base(srcPath)
		rec["download_path"] = srcPath
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page %s: %w", cfg.Table, err)
	}
	return out, nil
}

// tableColumns reads the live column list of a table. A table that does
// not exist yields ErrTableNotFound so the caller can report "run the
// processor first" instead of an empty grid.
func (s *Service) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return cols, nil
}

// dateLayouts are the source representations seen in the reports.
var dateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"2-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// presentValue canonicalizes date-like columns to YYYY-MM-DD and maps
// SQL NULL to an explicit JSON null. Unparseable dates pass through
// unchanged rather than being dropped.
func presentValue(col string, v any) any {
	if v == nil {
		return nil
	}
	if !strings.Contains(strings.ToLower(col), "date") {
		return normalizeValue(v)
	}
	raw := stringValue(v)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return raw
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
