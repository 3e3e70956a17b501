// Package store is the keyed, expiring blob store behind progress and results.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phanvandien/ocr-script/internal/common"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = fmt.Errorf("store: key not found: %w", common.ErrNotFound)

// Store holds opaque values under string keys with a per-write TTL.
// A non-positive TTL means the value never expires.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

type Config struct {
	Driver      string // memory | redis | postgres | sqlite
	DSN         string
	DialTimeout time.Duration
	MaxConns    int32
}

// Open returns the Store for cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return OpenRedis(ctx, cfg, logger)
	case "postgres":
		return OpenPostgres(ctx, cfg, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, b, ttl)
}

// GetJSON reads key and unmarshals it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

// ResultKey is where a session's final BatchResult lives.
func ResultKey(sessionID string) string { return "result:" + sessionID }

// ProgressKey is where a session's latest ProgressEvent lives.
func ProgressKey(sessionID string) string { return "progress:" + sessionID }
