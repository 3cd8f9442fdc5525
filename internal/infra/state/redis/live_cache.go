// Package redisstate implements the live-view cache on Redis.
package redisstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
)

// RedisLiveViewCache caches the serialized public poll projection per join
// code. Entries are short-lived: the write paths invalidate on state
// changes and the TTL covers anything they miss.
type RedisLiveViewCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLiveViewCache creates a RedisLiveViewCache.
func NewRedisLiveViewCache(client *redis.Client, keyPrefix string) *RedisLiveViewCache {
	if client == nil {
		panic("redis client cannot be nil for RedisLiveViewCache")
	}
	if keyPrefix == "" {
		keyPrefix = "cc:"
	}
	return &RedisLiveViewCache{client: client, keyPrefix: keyPrefix}
}

func (r *RedisLiveViewCache) liveViewKey(code string) string {
	return fmt.Sprintf("%ssession:%s:live", r.keyPrefix, code)
}

func (r *RedisLiveViewCache) GetLiveView(ctx context.Context, code string) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.liveViewKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: get live view for code '%s': %w", code, err)
	}
	return payload, nil
}

func (r *RedisLiveViewCache) SetLiveView(ctx context.Context, code string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	if err := r.client.Set(ctx, r.liveViewKey(code), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set live view for code '%s': %w", code, err)
	}
	return nil
}

func (r *RedisLiveViewCache) InvalidateLiveView(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, r.liveViewKey(code)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate live view for code '%s': %w", code, err)
	}
	return nil
}
