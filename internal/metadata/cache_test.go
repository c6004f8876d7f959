package metadata

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mufapcli/internal/shared/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedStore(t *testing.T, rows [][3]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mufap_data.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE mufap_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT,
		title TEXT,
		filepath TEXT UNIQUE
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err = db.Exec("INSERT INTO mufap_reports (filepath, date, title) VALUES (?, ?, ?)",
			r[0], r[1], r[2])
		require.NoError(t, err)
	}
	return path
}

func TestLoadMissingStore(t *testing.T) {
	cache := Load(filepath.Join(t.TempDir(), "absent.db"), discard())
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())

	// Lookups still work, returning the sentinel.
	p := cache.Lookup("anything.csv")
	assert.Equal(t, NotAvailable, p.ReportDate)
	assert.Equal(t, NotAvailable, p.Title)
}

func TestLoadMissingStoreWarns(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	Load(filepath.Join(t.TempDir(), "absent.db"), logger)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "metadata store not found")
}

func TestLoadKeysByFilename(t *testing.T) {
	path := seedStore(t, [][3]string{
		{"/Documents/SECP/PKRV-20240105.csv", "2024-01-05 00:00:00", "PKRV Rates"},
		{"/Documents/SECP/PKFRV-20240105.xlsx", "2024-01-05 00:00:00", "PKFRV Rates"},
	})

	cache := Load(path, discard())
	assert.Equal(t, 2, cache.Len())

	p := cache.Lookup("PKRV-20240105.csv")
	assert.Equal(t, "2024-01-05 00:00:00", p.ReportDate)
	assert.Equal(t, "PKRV Rates", p.Title)
}

func TestLoadSkipsEmptyFilepath(t *testing.T) {
	path := seedStore(t, [][3]string{
		{"", "2024-01-05", "no path"},
		{"/r/PKRV-1.csv", "2024-01-06", "ok"},
	})

	cache := Load(path, discard())
	assert.Equal(t, 1, cache.Len())
}

func TestLoadNullColumnsBecomeSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mufap_data.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE mufap_reports (date TEXT, title TEXT, filepath TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO mufap_reports (filepath, date, title) VALUES ('/r/PKRV-2.csv', NULL, NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cache := Load(path, discard())
	p := cache.Lookup("PKRV-2.csv")
	assert.Equal(t, NotAvailable, p.ReportDate)
	assert.Equal(t, NotAvailable, p.Title)
}

func TestLoadUnreadableTableIsNonFatal(t *testing.T) {
	// Store exists but has no mufap_reports table.
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE unrelated (x TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cache := Load(path, discard())
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())
}
