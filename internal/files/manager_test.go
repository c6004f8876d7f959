package files

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "PKRV"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "PKRV", "pkrv_a.csv"), []byte("Tenor\n"), 0o644))
	return NewManager(base, slog.New(slog.NewTextHandler(io.Discard, nil))), base
}

func TestResolve(t *testing.T) {
	m, base := testManager(t)

	full, err := m.Resolve("PKRV/pkrv_a.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "PKRV", "pkrv_a.csv"), full)
}

func TestResolveRejectsTraversal(t *testing.T) {
	m, _ := testManager(t)

	tests := []string{
		"../etc/passwd",
		"PKRV/../../secret",
		"/etc/passwd",
		"",
		"   ",
	}
	for _, rel := range tests {
		_, err := m.Resolve(rel)
		assert.ErrorIs(t, err, ErrOutsideRoot, "path %q", rel)
	}
}

func TestResolveMissingFile(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.Resolve("PKRV/absent.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	// Directories are not downloadable.
	_, err = m.Resolve("PKRV")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileExists(t *testing.T) {
	m, _ := testManager(t)
	assert.True(t, m.FileExists("PKRV/pkrv_a.csv"))
	assert.False(t, m.FileExists("PKRV/absent.csv"))
}

func TestSize(t *testing.T) {
	m, _ := testManager(t)
	size, err := m.Size("PKRV/pkrv_a.csv")
	require.NoError(t, err)
	assert.EqualValues(t, len("Tenor\n"), size)
}

func TestListFiles(t *testing.T) {
	m, _ := testManager(t)
	names, err := m.ListFiles("PKRV")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkrv_a.csv"}, names)

	_, err = m.ListFiles("../outside")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
