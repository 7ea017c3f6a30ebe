package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/portdeveloper/mission7-example-game/internal"
)

var (
	// ErrNonceRedisUnavailable is an exported constant or variable used by the validation engine.
	ErrNonceRedisUnavailable = errors.New("nonce redis unavailable")
)

// RedisNonceStore is the distributed nonce backend. Expiry is owned by Redis;
// consumption is a single atomic GETDEL, so concurrent redeemers of one value
// admit exactly one winner.
type RedisNonceStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisNonce creates a Redis-backed nonce store under the given key prefix.
func NewRedisNonce(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *RedisNonceStore {
	return &RedisNonceStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisNonceStore) key(value string) string {
	return s.prefix + ":" + value
}

// Issue mints a fresh nonce with a Redis-enforced TTL.
//
//	Performance: 1 Redis SET.
func (s *RedisNonceStore) Issue(ctx context.Context) (string, error) {
	value, err := internal.NewNonceValue()
	if err != nil {
		return "", errors.Join(ErrNonceGeneration, err)
	}

	nonce := value.String()
	issuedAt := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.redis.Set(ctx, s.key(nonce), issuedAt, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNonceRedisUnavailable, err)
	}

	return nonce, nil
}

// Consume atomically redeems a nonce: true iff the key still exists. A missing
// key means never issued, already spent, or expired; each is a consume failure.
//
//	Performance: 1 Redis GETDEL.
func (s *RedisNonceStore) Consume(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}

	if err := s.redis.GetDel(ctx, s.key(value)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrNonceRedisUnavailable, err)
	}

	return true, nil
}

// Close is a no-op: record expiry is owned by Redis.
func (s *RedisNonceStore) Close() {}
