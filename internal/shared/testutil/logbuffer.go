// Package testutil holds helpers shared by package tests, mainly an
// in-memory slog sink for asserting on what components log.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogBuffer is a slog.Handler that keeps every record in memory. It is
// safe for concurrent use, so components under test may log from
// worker goroutines.
type LogBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger wired to a fresh buffer.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	return slog.New(buf), buf
}

func (b *LogBuffer) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, LogRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled captures every level; tests decide what matters.
func (b *LogBuffer) Enabled(_ context.Context, _ slog.Level) bool { return true }

// WithAttrs and WithGroup return the buffer itself: attribute scoping
// does not matter for message assertions.
func (b *LogBuffer) WithAttrs(_ []slog.Attr) slog.Handler { return b }
func (b *LogBuffer) WithGroup(_ string) slog.Handler      { return b }

// ByLevel returns the captured records at one level, in order.
func (b *LogBuffer) ByLevel(level slog.Level) []LogRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []LogRecord
	for _, r := range b.records {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// AssertLogContains fails the test unless some record at the given
// level contains message as a substring.
func AssertLogContains(t *testing.T, buf *LogBuffer, level slog.Level, message string) {
	t.Helper()

	records := buf.ByLevel(level)
	for _, r := range records {
		if strings.Contains(r.Message, message) {
			return
		}
	}

	t.Errorf("expected a %s log containing %q", level, message)
	for _, r := range records {
		t.Logf("  captured: %s", r.Message)
	}
}
