package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrDedupRedisUnavailable is an exported constant or variable used by the validation engine.
	ErrDedupRedisUnavailable = errors.New("dedup redis unavailable")
)

const (
	dedupValueProcessing = "processing"
	dedupValueComplete   = "complete"
)

// releaseDedupLua drops a record only while it is still Processing.
// KEYS[1] = record key
//
// Returns 1 when the record was deleted, 0 otherwise.
var releaseDedupLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == 'processing' then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// completeDedupLua transitions a record to Complete preserving its TTL. A
// record evicted mid-flight is recreated with a fresh TTL so the guard stays
// closed without ever minting an immortal key.
// KEYS[1] = record key
// ARGV[1] = complete marker
// ARGV[2] = ttl in milliseconds
var completeDedupLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('SET', KEYS[1], ARGV[1], 'KEEPTTL')
end
return redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
`)

// RedisDedupStore is the distributed dedup backend. Admission is a single
// SETNX; record expiry is owned by Redis and never extended by a state
// transition.
type RedisDedupStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisDedup creates a Redis-backed dedup store under the given key prefix.
func NewRedisDedup(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *RedisDedupStore {
	return &RedisDedupStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisDedupStore) key(id string) string {
	return s.prefix + ":" + id
}

// Begin admits at most one caller per live fingerprint.
//
//	Performance: 1 Redis SETNX.
func (s *RedisDedupStore) Begin(ctx context.Context, id string) (bool, error) {
	acquired, err := s.redis.SetNX(ctx, s.key(id), dedupValueProcessing, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDedupRedisUnavailable, err)
	}
	return acquired, nil
}

// IsDuplicate reports whether a live record exists in Processing or Complete.
//
//	Performance: 1 Redis EXISTS.
func (s *RedisDedupStore) IsDuplicate(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDedupRedisUnavailable, err)
	}
	return n > 0, nil
}

// Complete transitions the record to Complete, keeping the original TTL.
//
//	Performance: 1 Redis EVALSHA.
func (s *RedisDedupStore) Complete(ctx context.Context, id string) error {
	err := completeDedupLua.Run(ctx, s.redis,
		[]string{s.key(id)}, dedupValueComplete, s.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrDedupRedisUnavailable, err)
	}
	return nil
}

// Release drops a Processing record so a failed upstream write can be
// re-driven; Complete records are left in place.
//
//	Performance: 1 Redis EVALSHA.
func (s *RedisDedupStore) Release(ctx context.Context, id string) error {
	if err := releaseDedupLua.Run(ctx, s.redis, []string{s.key(id)}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrDedupRedisUnavailable, err)
	}
	return nil
}

// State reports the current record state for inspection; ok is false when no
// record exists.
func (s *RedisDedupStore) State(ctx context.Context, id string) (DedupState, bool) {
	val, err := s.redis.Get(ctx, s.key(id)).Result()
	if err != nil {
		return 0, false
	}

	switch val {
	case dedupValueProcessing:
		return DedupProcessing, true
	case dedupValueComplete:
		return DedupComplete, true
	default:
		return 0, false
	}
}

// Close is a no-op: record expiry is owned by Redis.
func (s *RedisDedupStore) Close() {}
