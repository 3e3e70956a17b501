package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	logger.Debug("batch.run.start", "session_id", "s1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "batch.run.start", rec["msg"])
	require.Equal(t, "s1", rec["session_id"])
}

func TestNewLoggerFanoutToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocr.log")
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(LogConfig{Level: "info", Format: "text", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("export.xlsx.ok", "rows", 3)
	logger.Debug("dropped")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "export.xlsx.ok")
	require.NotContains(t, string(b), "dropped")
	require.Contains(t, buf.String(), "export.xlsx.ok")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}
