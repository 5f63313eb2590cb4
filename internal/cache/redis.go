package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache using go-redis v9. Expiry is enforced
// server-side by Redis TTLs.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Len(ctx context.Context) (int64, error) {
	return r.client.DBSize(ctx).Result()
}

// Client returns the underlying Redis client for advanced operations.
func (r *RedisCache) Client() redis.UniversalClient {
	return r.client
}
