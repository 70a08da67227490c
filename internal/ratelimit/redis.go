package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisStore is the multi-node limiter store. It uses a fixed window
// (INCR plus EXPIRE) rather than the in-memory sliding window; the coarser
// boundary behavior is acceptable for login throttling and keeps the check
// to one round trip.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	fullKey := keyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.TTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	count := int(incr.Val())
	resetAt := time.Now().Add(ttl.Val())
	if count > limit {
		return &Result{Allowed: false, Limit: limit, ResetAt: resetAt}, nil
	}
	return &Result{Allowed: true, Limit: limit, Remaining: limit - count, ResetAt: resetAt}, nil
}
