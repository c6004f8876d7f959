package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Resolution failures surfaced to the transport layer.
var (
	ErrNotFound    = errors.New("file not found")
	ErrOutsideRoot = errors.New("path escapes the configured root")
)

// Manager resolves stored relative paths into real files under a single
// configured root. Everything served for download goes through Resolve
// so that a stored path can never reach outside the root.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a manager rooted at base.
func NewManager(base string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   filepath.Clean(base),
		logger: logger.With(slog.String("component", "files")),
	}
}

// Root returns the configured root directory.
func (m *Manager) Root() string {
	return m.root
}

// Resolve maps a stored relative path to an absolute path under the
// root, rejecting traversal attempts and missing files.
func (m *Manager) Resolve(rel string) (string, error) {
	rel = filepath.FromSlash(strings.TrimSpace(rel))
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}

	full := filepath.Clean(filepath.Join(m.root, rel))
	if full != m.root && !strings.HasPrefix(full, m.root+string(filepath.Separator)) {
		m.logger.Warn("rejected path outside root", slog.String("path", rel))
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, rel)
		}
		return "", fmt.Errorf("stat %q: %w", rel, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrNotFound, rel)
	}
	return full, nil
}

// FileExists reports whether a relative path resolves to a real file.
func (m *Manager) FileExists(rel string) bool {
	_, err := m.Resolve(rel)
	return err == nil
}

// Size returns the size in bytes of a resolvable file.
func (m *Manager) Size(rel string) (int64, error) {
	full, err := m.Resolve(rel)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ListFiles returns the names of regular files in a directory under the
// root (non-recursive).
func (m *Manager) ListFiles(relDir string) ([]string, error) {
	full := filepath.Clean(filepath.Join(m.root, filepath.FromSlash(relDir)))
	if full != m.root && !strings.HasPrefix(full, m.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %q", ErrOutsideRoot, relDir)
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
