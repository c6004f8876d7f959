package main

import (
	"context"
	"log/slog"
	"os"

	"mufapcli/internal/config"
	"mufapcli/internal/infrastructure"
	"mufapcli/internal/ingest"
	"mufapcli/internal/metadata"
	"mufapcli/internal/store"
	"mufapcli/internal/validation"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx := context.Background()

	logger.Info("Starting report processing",
		slog.String("base_dir", cfg.Paths.BaseDir),
		slog.Any("scan_dirs", cfg.Paths.ScanDirs),
		slog.String("financial_db", cfg.Paths.FinancialDB))

	preflight := validation.NewPreflight(logger)
	if err := preflight.ValidateBaseDir(cfg.Paths.BaseDir); err != nil {
		return err
	}
	if err := preflight.ValidateOutputPath(cfg.Paths.FinancialDB); err != nil {
		return err
	}
	preflight.CheckScanDirs(cfg.Paths.ScanDirs)
	preflight.CheckMetadataStore(cfg.Paths.MetadataDB)

	// Provenance metadata is best-effort; processing continues with the
	// N/A sentinel when the metadata store is absent.
	cache := metadata.Load(cfg.Paths.MetadataDB, logger)
	logger.Info("Metadata cache loaded", slog.Int("entries", cache.Len()))

	db, err := store.Open(ctx, cfg.Paths.FinancialDB)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline := ingest.NewPipeline(cfg, cache, db, logger)
	summary, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Processing complete",
		slog.Int("files_scanned", summary.FilesScanned),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("tenor_files", summary.TenorFiles),
		slog.Int("tenor_rows", summary.TenorRows),
		slog.Int("mutual_fund_files", summary.MutualFundFiles),
		slog.Int("mutual_fund_rows", summary.MutualFundRows),
		slog.Int("unified_columns", len(summary.UnifiedColumns)))

	return nil
}
