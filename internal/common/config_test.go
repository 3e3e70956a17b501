package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, "ocr-results.db", cfg.Store.DSN)
	require.Equal(t, 2*time.Hour, cfg.Store.ResultTTL)
	require.Equal(t, 50, cfg.Batch.MaxImages)
	require.Equal(t, 2, cfg.LLM.MaxAttempts)
	require.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OCR_STORE_DRIVER", "redis")
	t.Setenv("OCR_STORE_DSN", "redis://localhost:6379/0")
	t.Setenv("OCR_BATCH_MAX_IMAGES", "10")
	t.Setenv("OCR_BATCH_COMPLETION_DELAY", "50ms")
	t.Setenv("OCR_LLM_API_KEY", "key-123")
	t.Setenv("OCR_LLM_TEMPERATURE", "0.2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.Store.Driver)
	require.Equal(t, "redis://localhost:6379/0", cfg.Store.DSN)
	require.Equal(t, 10, cfg.Batch.MaxImages)
	require.Equal(t, 50*time.Millisecond, cfg.Batch.CompletionDelay)
	require.Equal(t, "key-123", cfg.LLM.APIKey)
	require.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigGoogleKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "google-key", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidInput))

	cfg.LLM.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = ""
	require.Error(t, cfg.Validate())
	cfg.Store.DSN = "postgres://localhost/ocr"
	require.NoError(t, cfg.Validate())

	cfg.Media.Driver = "s3"
	require.Error(t, cfg.Validate())
	require.Error(t, cfg.ValidateStorage())

	cfg = DefaultConfig()
	require.NoError(t, cfg.ValidateStorage())
}
