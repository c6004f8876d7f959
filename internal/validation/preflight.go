package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// reportPatterns are the file extensions the ingest pipeline consumes.
var reportPatterns = []string{"*.csv", "*.xlsx", "*.xls"}

// Preflight validates the processing environment before a run starts:
// the base directory, the configured scan directories and the output
// location for the financial store.
type Preflight struct {
	logger *slog.Logger
}

// NewPreflight creates a new preflight validator
func NewPreflight(logger *slog.Logger) *Preflight {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preflight{
		logger: logger.With(slog.String("component", "preflight")),
	}
}

// ValidateBaseDir checks that the configured base directory exists and
// is a directory.
func (p *Preflight) ValidateBaseDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("base directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat base directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// CheckScanDirs inspects the configured scan directories. Missing
// directories are a warning, not an error; the pipeline skips them.
// Returns the number of candidate report files found across all
// directories.
func (p *Preflight) CheckScanDirs(dirs []string) int {
	total := 0
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			p.logger.Warn("Scan directory not available",
				slog.String("directory", dir))
			continue
		}

		count := p.countReportFiles(dir)
		p.logger.Info("Scan directory checked",
			slog.String("directory", dir),
			slog.Int("report_files", count))
		total += count
	}
	return total
}

// countReportFiles counts ingestable report files in a directory,
// skipping Excel lock files.
func (p *Preflight) countReportFiles(dir string) int {
	count := 0
	for _, pattern := range reportPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if strings.HasPrefix(filepath.Base(match), "~$") {
				continue
			}
			if info, err := os.Stat(match); err == nil && !info.IsDir() {
				count++
			}
		}
	}
	return count
}

// ValidateOutputPath ensures the directory holding the output store
// exists or can be created, and is writable.
func (p *Preflight) ValidateOutputPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify writability with a throwaway file.
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}

// CheckMetadataStore reports whether the provenance metadata store is
// present. Absence is expected on first runs; the pipeline falls back
// to the N/A sentinel.
func (p *Preflight) CheckMetadataStore(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		p.logger.Warn("Metadata store not found, provenance will use the N/A sentinel",
			slog.String("path", path))
		return false
	}
	p.logger.Debug("Metadata store found",
		slog.String("path", path),
		slog.Int64("size", info.Size()))
	return true
}
