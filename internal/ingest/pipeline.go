package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"mufapcli/internal/columns"
	"mufapcli/internal/config"
	"mufapcli/internal/metadata"
)

// Pipeline runs one complete ingestion batch: discover files, locate
// and classify headers, normalize records and load both destination
// tables. Per-file failures are contained; only store failures abort.
type Pipeline struct {
	cfg          *config.Config
	scanner      *Scanner
	fingerprints []Fingerprint
	cache        *metadata.Cache
	loader       *Loader
	logger       *slog.Logger
}

// NewPipeline wires a pipeline from configuration and an open
// financial store.
func NewPipeline(cfg *config.Config, cache *metadata.Cache, db *sql.DB, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		scanner:      NewScanner(cfg.Ingest.MaxScanRows, cfg.Ingest.Encodings, logger),
		fingerprints: DefaultFingerprints(),
		cache:        cache,
		loader:       NewLoader(db, logger),
		logger:       logger.With(slog.String("component", "pipeline")),
	}
}

// RunSummary reports what one batch run accomplished.
type RunSummary struct {
	FilesScanned    int
	FilesSkipped    int
	TenorFiles      int
	TenorRows       int
	MutualFundFiles int
	MutualFundRows  int
	UnifiedColumns  []string
}

// Run executes one full batch: every file is processed independently up
// to normalization, then the fixed-schema table loads file by file and
// the variable-schema table is built from the unified column set. The
// destination tables are dropped and recreated, so a run over the same
// inputs is a full rebuild, not an increment.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	files := p.discover()
	summary := &RunSummary{FilesScanned: len(files)}
	if len(files) == 0 {
		p.logger.Warn("no input files found", slog.Any("scan_dirs", p.cfg.Paths.ScanDirs))
		return summary, nil
	}

	sets := p.normalizeAll(ctx, files)
	summary.FilesSkipped = len(files) - len(sets)

	var tenor, mutual []*FileRecordSet
	for _, set := range sets {
		switch set.Format {
		case FormatTenorRates:
			tenor = append(tenor, set)
		case FormatMutualFund:
			mutual = append(mutual, set)
		}
	}

	if err := p.loadTenor(ctx, tenor, summary); err != nil {
		return nil, err
	}
	if err := p.loadMutualFund(ctx, mutual, summary); err != nil {
		return nil, err
	}

	p.logger.Info("batch complete",
		slog.Int("files_scanned", summary.FilesScanned),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("tenor_rows", summary.TenorRows),
		slog.Int("mutual_fund_rows", summary.MutualFundRows))
	return summary, nil
}

// discover enumerates the scannable files under every configured
// directory. A missing directory is a warning, not an error; the run
// proceeds with whatever the remaining directories hold.
func (p *Pipeline) discover() []RawFile {
	var files []RawFile
	for _, dir := range p.cfg.Paths.ScanDirs {
		if _, err := os.Stat(dir); err != nil {
			p.logger.Warn("scan directory unavailable",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		for _, pattern := range []string{"*.csv", "*.xlsx", "*.xls"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			for _, path := range matches {
				rel, err := filepath.Rel(p.cfg.Paths.BaseDir, path)
				if err != nil {
					rel = filepath.Base(path)
				}
				files = append(files, RawFile{Path: path, Rel: filepath.ToSlash(rel)})
			}
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// normalizeAll fans one worker task out per file and gathers the
// successfully normalized record sets. Order is restored afterwards so
// load order (and therefore surrogate keys) is deterministic.
func (p *Pipeline) normalizeAll(ctx context.Context, files []RawFile) []*FileRecordSet {
	// Each worker writes only its own slot, so no locking is needed.
	results := make([]*FileRecordSet, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Ingest.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(f)
			return nil
		})
	}
	// Workers only return the context error, so Wait cannot fail on a
	// per-file problem.
	if err := g.Wait(); err != nil {
		p.logger.Warn("batch interrupted", slog.String("error", err.Error()))
	}

	sets := make([]*FileRecordSet, 0, len(files))
	for _, set := range results {
		if set != nil {
			sets = append(sets, set)
		}
	}
	return sets
}

// processFile runs locate, classify and normalize for one file. A nil
// return means the file is skipped; the reason is already logged.
func (p *Pipeline) processFile(f RawFile) *FileRecordSet {
	loc, ok := p.scanner.Locate(f)
	if !ok {
		p.logger.Warn("no header found, skipping file", slog.String("file", f.Name()))
		return nil
	}

	format := Classify(p.fingerprints, loc.Tokens)
	if format == FormatUnknown {
		p.logger.Warn("unrecognized format, skipping file",
			slog.String("file", f.Name()),
			slog.Int("header_row", loc.Row))
		return nil
	}

	// Tenor rate reports are only published as CSV; an Excel file with a
	// matching header is treated as a stray and skipped.
	if format == FormatTenorRates && !f.IsCSV() {
		p.logger.Warn("tenor rate report is not a CSV, skipping file",
			slog.String("file", f.Name()))
		return nil
	}

	prov := p.cache.Lookup(f.Name())
	set, err := p.scanner.Normalize(f, loc.Row, format, prov)
	if err != nil {
		p.logger.Warn("normalization failed, skipping file",
			slog.String("file", f.Name()),
			slog.String("error", err.Error()))
		return nil
	}

	p.logger.Info("file normalized",
		slog.String("file", f.Name()),
		slog.String("format", string(format)),
		slog.Int("header_row", loc.Row),
		slog.Int("records", len(set.Records)))
	return set
}

// loadTenor rebuilds the fixed-schema table and appends each file's
// records as soon as they are available. A per-file load failure drops
// that file from the totals and the batch continues.
func (p *Pipeline) loadTenor(ctx context.Context, sets []*FileRecordSet, summary *RunSummary) error {
	if err := p.loader.ResetTenorTable(ctx); err != nil {
		return err
	}
	for _, set := range sets {
		n, err := p.loader.LoadTenorRates(ctx, set)
		if err != nil {
			p.logger.Error("tenor load failed",
				slog.String("file", set.File.Name()),
				slog.Int("rows_attempted", len(set.Records)),
				slog.String("error", err.Error()))
			continue
		}
		summary.TenorFiles++
		summary.TenorRows += n
	}
	return nil
}

// loadMutualFund unifies every file's schema, rebuilds the
// variable-schema table and appends each record set under the unified
// column list. The union must be complete before the table is created,
// which is why this runs only after the whole batch is normalized.
func (p *Pipeline) loadMutualFund(ctx context.Context, sets []*FileRecordSet, summary *RunSummary) error {
	if len(sets) == 0 {
		return nil
	}

	unified := UnifySchema(sets)
	summary.UnifiedColumns = unified
	if err := p.loader.CreateMutualFundTable(ctx, unified, sets); err != nil {
		return err
	}

	for _, set := range sets {
		n, err := p.loader.LoadMutualFund(ctx, unified, set)
		if err != nil {
			p.logger.Error("mutual fund load failed",
				slog.String("file", set.File.Name()),
				slog.Int("rows_attempted", len(set.Records)),
				slog.String("error", err.Error()))
			continue
		}
		summary.MutualFundFiles++
		summary.MutualFundRows += n
	}

	p.reportColumns(sets, unified)
	return nil
}

// reportColumns logs the per-column contribution counts and the final
// display ordering for the unified table.
func (p *Pipeline) reportColumns(sets []*FileRecordSet, unified []string) {
	freq := ColumnFrequency(sets)
	parts := make([]string, 0, len(unified))
	for _, col := range unified {
		parts = append(parts, fmt.Sprintf("%s=%d", col, freq[col]))
	}
	p.logger.Info("column frequency",
		slog.Int("columns", len(unified)),
		slog.String("counts", strings.Join(parts, " ")))

	display := columns.Resolve(unified, columns.PreferredMutualFund)
	p.logger.Info("display column order",
		slog.Any("columns", display))
}
