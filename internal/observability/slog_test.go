package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcdh/teicompleter/internal/config"
)

func TestToLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{config.LevelDebug, slog.LevelDebug},
		{config.LevelInfo, slog.LevelInfo},
		{config.LevelWarn, slog.LevelWarn},
		{config.LevelError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, test := range tests {
		t.Run(test.level, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.want, toLogLevel(test.level))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LogLevel = config.LevelWarn

	var buf bytes.Buffer
	logger := newLogger(&buf, false, cfg)
	logger.Info("dropped")
	logger.Warn("kept", "transformation", "sgns")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "sgns", record["transformation"])
	assert.NotContains(t, record, slog.SourceKey)

	buf.Reset()
	cfg.DevMode = true
	newLogger(&buf, true, cfg).Error("text", "n", 1)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "source=")
}
