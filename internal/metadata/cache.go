// Package metadata loads report provenance from the scraper's store.
//
// The upstream scraper records every downloaded report in a SQLite table
// (mufap_reports) keyed by its site-relative filepath. Ingestion only needs
// the report date and title for each filename, so the whole table is read
// once into an in-memory cache.
package metadata

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel value used when no provenance entry exists for a file.
const NotAvailable = "N/A"

// Provenance is the per-file metadata carried through ingestion.
type Provenance struct {
	ReportDate string
	Title      string
}

// Cache maps a report filename to its provenance.
type Cache struct {
	byFilename map[string]Provenance
}

// Load reads every (filepath, date, title) row from the metadata store.
// A missing or unreadable store is not fatal: ingestion proceeds with
// "N/A" provenance for every file, and whatever rows were read before a
// failure are kept.
func Load(dbPath string, logger *slog.Logger) *Cache {
	cache := &Cache{byFilename: make(map[string]Provenance)}

	if _, err := os.Stat(dbPath); err != nil {
		logger.Warn("metadata store not found, report dates will be unavailable",
			slog.String("path", dbPath))
		return cache
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logger.Warn("failed to open metadata store",
			slog.String("path", dbPath),
			slog.String("error", err.Error()))
		return cache
	}
	defer db.Close()

	rows, err := db.Query("SELECT filepath, date, title FROM mufap_reports")
	if err != nil {
		logger.Warn("failed to read metadata store",
			slog.String("path", dbPath),
			slog.String("error", err.Error()))
		return cache
	}
	defer rows.Close()

	for rows.Next() {
		var path, date, title sql.NullString
		if err := rows.Scan(&path, &date, &title); err != nil {
			logger.Warn("failed to scan metadata row, keeping partial cache",
				slog.String("error", err.Error()))
			break
		}
		if !path.Valid || path.String == "" {
			continue
		}
		cache.byFilename[filepath.Base(path.String)] = Provenance{
			ReportDate: orNA(date),
			Title:      orNA(title),
		}
	}
	if err := rows.Err(); err != nil {
		logger.Warn("metadata read interrupted, keeping partial cache",
			slog.String("error", err.Error()))
	}

	logger.Info("metadata cache loaded", slog.Int("reports", len(cache.byFilename)))
	return cache
}

// Lookup returns the provenance for a filename, or the "N/A" sentinel
// when the file was never recorded by the scraper.
func (c *Cache) Lookup(filename string) Provenance {
	if p, ok := c.byFilename[filename]; ok {
		return p
	}
	return Provenance{ReportDate: NotAvailable, Title: NotAvailable}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return len(c.byFilename)
}

func orNA(s sql.NullString) string {
	if s.Valid && s.String != "" {
		return s.String
	}
	return NotAvailable
}
