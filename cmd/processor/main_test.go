package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunEndToEnd drives the batch binary against a small fixture tree
// configured entirely through environment variables.
func TestRunEndToEnd(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "PKRV"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(base, "PKRV", "pkrv_20240102.csv"),
		[]byte("Tenor,Mid Rate,Change\n3M,11.02,0.01\n6M,11.25,-0.02\n"),
		0o644))

	t.Setenv("MUFAP_PATHS_BASE_DIR", base)
	t.Setenv("MUFAP_PATHS_SCAN_DIRS", "PKRV")
	t.Setenv("MUFAP_LOGGING_OUTPUT", "stdout")

	require.NoError(t, run())

	db, err := sql.Open("sqlite3", filepath.Join(base, "financial_data.db"))
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tenor_rates").Scan(&count))
	assert.Equal(t, 2, count)
}

// TestRunMissingScanDirs verifies the run is non-fatal when configured
// scan directories do not exist yet.
func TestRunMissingScanDirs(t *testing.T) {
	base := t.TempDir()

	t.Setenv("MUFAP_PATHS_BASE_DIR", base)
	t.Setenv("MUFAP_PATHS_SCAN_DIRS", "PKRV,PKFRV")
	t.Setenv("MUFAP_LOGGING_OUTPUT", "stdout")

	require.NoError(t, run())
}
