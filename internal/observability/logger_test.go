package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("Alert run complete", "created", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Alert run complete", line["msg"])
	assert.Equal(t, float64(2), line["created"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("Feed cache hit", "date", "2024-05-01")

	assert.Contains(t, buf.String(), `msg="Feed cache hit"`)
	assert.Contains(t, buf.String(), "date=2024-05-01")
}

func TestLogLevel_DebugFlagOverridesLevel(t *testing.T) {
	assert.Equal(t, "warn", logLevel(&config.Config{LogLevel: "warn"}))
	assert.Equal(t, "debug", logLevel(&config.Config{LogLevel: "warn", Debug: true}))

	var buf bytes.Buffer
	logger := newLogger(&buf, logLevel(&config.Config{LogLevel: "error", Debug: true}), "text")
	logger.Debug("Feed cache miss")
	assert.Contains(t, buf.String(), "Feed cache miss")
}
