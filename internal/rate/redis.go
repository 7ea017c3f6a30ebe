package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the distributed [Limiter] backend: one counter key per
// client, expiry-governed windows, no local state.
type RedisLimiter struct {
	redis  redis.UniversalClient
	name   string
	config Config
}

// NewRedis creates a Redis-backed fixed-window limiter named after its
// endpoint category. The name namespaces counter keys.
func NewRedis(redisClient redis.UniversalClient, name string, cfg Config) (*RedisLimiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &RedisLimiter{
		redis:  redisClient,
		name:   name,
		config: cfg,
	}, nil
}

// Check counts one request against clientKey's live window.
//
//	Performance: 1 pipelined INCR+PTTL round trip, +1 EXPIRE on window open.
func (l *RedisLimiter) Check(ctx context.Context, clientKey string) (Result, error) {
	key := limiterKey(l.name, clientKey)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	if _, err := l.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	count := incr.Val()
	now := time.Now()
	resetAt := now.Add(l.config.Window)

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	} else if ttl := pttl.Val(); ttl > 0 {
		resetAt = now.Add(ttl)
	}

	remaining := l.config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(l.config.MaxRequests),
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Close is a no-op: window expiry is owned by Redis.
func (l *RedisLimiter) Close() {}
