// Package cache provides result stores for capability.Cached: an in-process
// map, SQLite (pure-Go or cgo driver) and Redis, plus a cron-driven pruner for
// stores that do not expire entries on their own.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("cache store closed")

// Store is a capability result store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Prune deletes expired entries and returns how many were removed.
	Prune(ctx context.Context) (int64, error)

	Close() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, sqlite or redis.
	Backend string

	// MaxEntries bounds the memory backend. Default: 10000.
	MaxEntries int

	SQLite SQLiteConfig
	Redis  RedisConfig
}

// New creates the configured store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.MaxEntries), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite, logger)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
