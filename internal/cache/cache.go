// Package cache stores fetched biography paragraphs keyed by page URL so that
// repeated runs do not refetch the same encyclopedia pages.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Close releases the backend connection.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend   string
	Size      int           // memory: max entries
	TTL       time.Duration // entry lifetime (0 = no expiry)
	RedisAddr string
	Prefix    string // redis key prefix
}

// Open builds the configured backend. Backend "none" (or empty) returns a nil
// Cache, which callers treat as caching disabled.
func Open(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(cfg.Size, cfg.TTL), nil
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		return NewRedis(cfg.RedisAddr, cfg.Prefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
