package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Destination table names in the financial store.
const (
	TenorTable      = "tenor_rates"
	MutualFundTable = "mutual_fund_data"
)

// Loader writes normalized record sets into the financial store. A run
// owns the store exclusively: both tables are dropped and recreated, so
// re-running over the same inputs is idempotent.
type Loader struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLoader creates a loader bound to an open financial store.
func NewLoader(db *sql.DB, logger *slog.Logger) *Loader {
	return &Loader{db: db, logger: logger.With(slog.String("component", "loader"))}
}

// ResetTenorTable drops and recreates the fixed-schema tenor_rates
// table. The column list is part of the store's public contract.
func (l *Loader) ResetTenorTable(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+TenorTable); err != nil {
		return fmt.Errorf("drop %s: %w", TenorTable, err)
	}
	_, err := l.db.ExecContext(ctx, `CREATE TABLE `+TenorTable+` (
		unique_id INTEGER PRIMARY KEY AUTOINCREMENT,
		Tenor TEXT,
		"Mid Rate" REAL,
		Change REAL,
		report_date TEXT,
		source_filepath TEXT
	)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", TenorTable, err)
	}
	return nil
}

// LoadTenorRates appends one file's records into tenor_rates, selecting
// exactly the fixed column list. Returns the number of rows written.
func (l *Loader) LoadTenorRates(ctx context.Context, set *FileRecordSet) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+TenorTable+` (Tenor, "Mid Rate", Change, report_date, source_filepath) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, rec := range set.Records {
		_, err := stmt.ExecContext(ctx,
			bindValue(rec, "Tenor"),
			bindValue(rec, "Mid Rate"),
			bindValue(rec, "Change"),
			bindValue(rec, TenorDateColumn),
			bindValue(rec, TenorPathColumn),
		)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", TenorTable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(set.Records), nil
}

// UnifySchema returns the lexicographically sorted union of the column
// sets of every record set in the run. The result becomes the literal
// column list of the mutual fund table, so it is computed once, before
// the first row is written.
func UnifySchema(sets []*FileRecordSet) []string {
	union := make(map[string]struct{})
	for _, set := range sets {
		for _, col := range set.Columns {
			union[col] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for col := range union {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

// ColumnFrequency counts, for every column, how many source files
// contributed it. Diagnostic only; nothing is stored.
func ColumnFrequency(sets []*FileRecordSet) map[string]int {
	freq := make(map[string]int)
	for _, set := range sets {
		for _, col := range set.Columns {
			freq[col]++
		}
	}
	return freq
}

// CreateMutualFundTable creates mutual_fund_data fresh with the unified
// column list, each column typed REAL or TEXT by its first-seen value
// across the run.
func (l *Loader) CreateMutualFundTable(ctx context.Context, columns []string, sets []*FileRecordSet) error {
	if _, err := l.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+MutualFundTable); err != nil {
		return fmt.Errorf("drop %s: %w", MutualFundTable, err)
	}

	types := inferColumnTypes(columns, sets)
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "unique_id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, col := range columns {
		defs = append(defs, quoteIdent(col)+" "+types[col])
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", MutualFundTable, strings.Join(defs, ", "))
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", MutualFundTable, err)
	}
	l.logger.Info("mutual fund table created",
		slog.Int("columns", len(columns)))
	return nil
}

// LoadMutualFund appends one file's records, backfilling every unified
// column absent from that file's own schema with a numeric zero.
func (l *Loader) LoadMutualFund(ctx context.Context, columns []string, set *FileRecordSet) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		MutualFundTable, strings.Join(quoted, ", "), placeholders))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	has := make(map[string]bool, len(set.Columns))
	for _, col := range set.Columns {
		has[col] = true
	}

	for _, rec := range set.Records {
		args := make([]any, len(columns))
		for i, col := range columns {
			if !has[col] {
				args[i] = 0 // missing-data backfill policy
				continue
			}
			args[i] = bindValue(rec, col)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", MutualFundTable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(set.Records), nil
}

// bindValue converts a raw cell into a SQL argument: numbers bind as
// floats, blanks as NULL, anything else as the raw string.
func bindValue(rec Record, col string) any {
	v, ok := rec[col]
	if !ok || v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
		return f
	}
	return v
}

// inferColumnTypes picks REAL or TEXT per column from the first
// non-blank value observed across the run.
func inferColumnTypes(columns []string, sets []*FileRecordSet) map[string]string {
	types := make(map[string]string, len(columns))
	for _, col := range columns {
		types[col] = firstSeenType(col, sets)
	}
	return types
}

func firstSeenType(col string, sets []*FileRecordSet) string {
	for _, set := range sets {
		if !set.HasColumn(col) {
			continue
		}
		for _, rec := range set.Records {
			v, ok := rec[col]
			if !ok || v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
				return "REAL"
			}
			return "TEXT"
		}
	}
	return "TEXT"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
