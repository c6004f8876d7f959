package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mufapcli/internal/config"
)

func TestInitializeLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("hello")
	assert.FileExists(t, path)
}

func TestTraceHandlerInjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	handler := &traceHandler{Handler: slog.NewJSONHandler(&buf, nil)}
	logger := slog.New(handler)

	ctx := WithTraceID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "with trace")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc-123", record["trace_id"])
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	first := GetTraceID(ctx)
	assert.NotEmpty(t, first)

	// Already present: unchanged.
	assert.Equal(t, first, GetTraceID(EnsureTraceID(ctx)))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}
