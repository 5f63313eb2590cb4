package cache

import (
	"context"
	"time"
)

// Cache defines the interface for response cache backends.
// Get returns (nil, nil) on a miss; expired entries are misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context) (int64, error)
}
