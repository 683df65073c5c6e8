package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching derived scoring results.
// Supports two-phase caching: local LRU (Community) + Redis (Pro).
//
// Cached entries are keyed by (user id, history version): callers embed the
// history length and last transaction id in the key, so any newly ingested
// transaction changes the key and stale entries simply age out. Caching is
// an optimization only; every result can always be recomputed from the
// repository.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
