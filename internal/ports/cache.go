package ports

import (
	"context"
	"time"
)

// Cache is a small key-value cache with TTL semantics, backed by Redis
// in production and an in-memory map in tests and degraded mode.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
