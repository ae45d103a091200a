package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/config"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("sheet routed to review", "sheet", "hero")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sheet routed to review", rec["msg"])
	assert.Equal(t, "hero", rec["sheet"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestNewText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf})
	require.NoError(t, err)
	logger.Info("run complete", "processed", 3)
	assert.Contains(t, buf.String(), "processed=3")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "error"

	var buf bytes.Buffer
	logger, err := NewFromConfig(&cfg, &buf)
	require.NoError(t, err)
	logger.Warn("dropped")
	assert.Empty(t, buf.String())
	logger.Error("catalog unavailable")
	assert.Contains(t, buf.String(), `"msg":"catalog unavailable"`)
}
