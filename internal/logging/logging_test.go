package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestSetup(t *testing.T) {
	t.Run("writes JSON lines to file", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "test.log")

		cfg := Config{
			Level:         "info",
			FilePath:      logPath,
			MaxSizeMB:     1,
			MaxFiles:      2,
			WriteToStderr: false,
		}

		logger, cleanup, err := Setup(cfg)
		require.NoError(t, err)

		logger.Info("ingest_started", slog.Int("files", 3))
		cleanup()

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)

		line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "ingest_started", entry["msg"])
		assert.Equal(t, float64(3), entry["files"])
	})

	t.Run("empty file path logs to stderr only", func(t *testing.T) {
		logger, cleanup, err := Setup(Config{Level: "debug"})
		require.NoError(t, err)
		defer cleanup()
		assert.NotNil(t, logger)
	})

	t.Run("respects level filtering", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "filtered.log")

		logger, cleanup, err := Setup(Config{
			Level:    "warn",
			FilePath: logPath,
			MaxSizeMB: 1,
			MaxFiles: 1,
		})
		require.NoError(t, err)

		logger.Info("should_not_appear")
		logger.Warn("should_appear")
		cleanup()

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "should_not_appear")
		assert.Contains(t, string(data), "should_appear")
	})
}

func TestRotatingWriter(t *testing.T) {
	t.Run("rotates when max size exceeded", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "rotate.log")

		w, err := NewRotatingWriter(logPath, 1, 3)
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		// Force rotation by pretending the limit is already reached.
		w.maxSize = 10
		_, err = w.Write([]byte("0123456789abcdef\n"))
		require.NoError(t, err)
		_, err = w.Write([]byte("second line after rotation\n"))
		require.NoError(t, err)

		_, err = os.Stat(logPath + ".1")
		assert.NoError(t, err, "rotated file should exist")
	})

	t.Run("creates missing directories", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "nested", "deep", "app.log")

		w, err := NewRotatingWriter(logPath, 1, 1)
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		_, err = w.Write([]byte("hello\n"))
		assert.NoError(t, err)
	})
}
