package stores

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/portdeveloper/mission7-example-game/internal"
)

var (
	// ErrNonceGeneration is an exported constant or variable used by the validation engine.
	ErrNonceGeneration = errors.New("nonce generation failed")
)

type nonceRecord struct {
	mu       sync.Mutex
	issuedAt time.Time
	used     bool
}

// MemoryNonceStore issues and consumes one-time challenge nonces in process
// memory. Records live in an atomic concurrent map; consumption flips a
// per-record used flag so a value can never be redeemed twice.
type MemoryNonceStore struct {
	records sync.Map // value → *nonceRecord

	ttl           time.Duration
	sweepInterval time.Duration

	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

// NewMemoryNonce creates the in-memory nonce store and starts its sweeper.
func NewMemoryNonce(ttl, sweepInterval time.Duration) *MemoryNonceStore {
	s := &MemoryNonceStore{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		done:          make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweep()

	return s
}

// Issue mints a fresh unused nonce and records its issue time.
func (s *MemoryNonceStore) Issue(_ context.Context) (string, error) {
	value, err := internal.NewNonceValue()
	if err != nil {
		return "", errors.Join(ErrNonceGeneration, err)
	}

	nonce := value.String()
	s.records.Store(nonce, &nonceRecord{issuedAt: s.now()})
	return nonce, nil
}

// Consume atomically redeems a nonce: true iff it is present, unused, and
// younger than the TTL. Any failure leaves the record untouched.
func (s *MemoryNonceStore) Consume(_ context.Context, value string) (bool, error) {
	v, ok := s.records.Load(value)
	if !ok {
		return false, nil
	}

	rec := v.(*nonceRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.used || s.now().Sub(rec.issuedAt) >= s.ttl {
		return false, nil
	}

	rec.used = true
	return true, nil
}

// Len reports the number of live records, spent ones included until swept.
func (s *MemoryNonceStore) Len() int {
	n := 0
	s.records.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the sweeper.
func (s *MemoryNonceStore) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *MemoryNonceStore) sweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *MemoryNonceStore) sweepOnce() {
	now := s.now()

	// Snapshot expired values first, then delete in a second pass.
	var expired []string
	s.records.Range(func(key, v any) bool {
		rec := v.(*nonceRecord)
		rec.mu.Lock()
		if now.Sub(rec.issuedAt) >= s.ttl {
			expired = append(expired, key.(string))
		}
		rec.mu.Unlock()
		return true
	})

	for _, value := range expired {
		s.records.Delete(value)
	}
}
