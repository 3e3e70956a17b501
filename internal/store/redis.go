package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store on a Redis server; TTLs map to key expiry.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects using a redis:// URL in cfg.DSN.
func OpenRedis(ctx context.Context, cfg Config, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.MaxConns > 0 {
		opts.PoolSize = int(cfg.MaxConns)
	}
	client := redis.NewClient(opts)

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Error("store.redis.connect_failed", "addr", opts.Addr, "error", err)
		return nil, fmt.Errorf("store: ping redis: %w", err)
	}
	logger.Info("store.redis.connected", "addr", opts.Addr, "db", opts.DB)
	return &Redis{client: client}, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Close() error { return r.client.Close() }
