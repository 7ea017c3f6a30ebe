package stores

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// DedupState defines a public type used by scoregate APIs.
//
// DedupState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DedupState uint8

const (
	// DedupProcessing is an exported constant or variable used by the validation engine.
	DedupProcessing DedupState = 1
	// DedupComplete is an exported constant or variable used by the validation engine.
	DedupComplete DedupState = 2
)

// PayoutFingerprint collapses retried identical payout requests into one
// deterministic identifier: keccak256 over the lowercased
// (player, amount, session) triple.
func PayoutFingerprint(playerAddress string, amount int, sessionID string) string {
	payload := strings.ToLower(playerAddress) + ":" + strconv.Itoa(amount) + ":" + sessionID
	return hex.EncodeToString(crypto.Keccak256([]byte(payload)))
}

type dedupRecord struct {
	mu        sync.Mutex
	state     DedupState
	timestamp time.Time
}

// MemoryDedupStore guards outbound payout requests against duplicates in
// process memory. Admission is a single LoadOrStore on an atomic concurrent
// map, so concurrent retries of one fingerprint admit exactly one caller.
type MemoryDedupStore struct {
	records sync.Map // fingerprint → *dedupRecord

	ttl           time.Duration
	sweepInterval time.Duration

	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

// NewMemoryDedup creates the in-memory dedup store and starts its sweeper.
func NewMemoryDedup(ttl, sweepInterval time.Duration) *MemoryDedupStore {
	s := &MemoryDedupStore{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		done:          make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweep()

	return s
}

// Begin admits at most one caller per live fingerprint: true creates a
// Processing record, false means a live record already exists in Processing
// or Complete. An expired record still waiting for the sweeper counts as
// absent and is reinitialized in place.
func (s *MemoryDedupStore) Begin(_ context.Context, id string) (bool, error) {
	fresh := &dedupRecord{state: DedupProcessing, timestamp: s.now()}

	v, loaded := s.records.LoadOrStore(id, fresh)
	if !loaded {
		return true, nil
	}

	rec := v.(*dedupRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if s.now().Sub(rec.timestamp) >= s.ttl {
		rec.state = DedupProcessing
		rec.timestamp = s.now()
		return true, nil
	}

	return false, nil
}

// IsDuplicate reports whether a live record exists in Processing or Complete.
func (s *MemoryDedupStore) IsDuplicate(_ context.Context, id string) (bool, error) {
	v, ok := s.records.Load(id)
	if !ok {
		return false, nil
	}

	rec := v.(*dedupRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	return s.now().Sub(rec.timestamp) < s.ttl, nil
}

// Complete transitions the record to Complete without extending its life, so
// later retries inside the TTL window report a duplicate. A record evicted
// mid-flight is recreated to keep the guard closed.
func (s *MemoryDedupStore) Complete(_ context.Context, id string) error {
	v, ok := s.records.Load(id)
	if !ok {
		s.records.Store(id, &dedupRecord{state: DedupComplete, timestamp: s.now()})
		return nil
	}

	rec := v.(*dedupRecord)
	rec.mu.Lock()
	rec.state = DedupComplete
	rec.mu.Unlock()
	return nil
}

// Release drops a Processing record so a failed upstream write can be
// re-driven. Complete records stay: a finished payout must keep suppressing
// retries for the rest of its TTL.
func (s *MemoryDedupStore) Release(_ context.Context, id string) error {
	v, ok := s.records.Load(id)
	if !ok {
		return nil
	}

	rec := v.(*dedupRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.state == DedupProcessing {
		s.records.Delete(id)
	}
	return nil
}

// State reports the current record state for inspection; ok is false when no
// record exists.
func (s *MemoryDedupStore) State(_ context.Context, id string) (DedupState, bool) {
	v, ok := s.records.Load(id)
	if !ok {
		return 0, false
	}

	rec := v.(*dedupRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, true
}

// Close stops the sweeper.
func (s *MemoryDedupStore) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *MemoryDedupStore) sweep() {
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

func (s *MemoryDedupStore) sweepOnce() {
	now := s.now()

	// Snapshot expired fingerprints first, then delete in a second pass.
	var expired []string
	s.records.Range(func(key, v any) bool {
		rec := v.(*dedupRecord)
		rec.mu.Lock()
		if now.Sub(rec.timestamp) >= s.ttl {
			expired = append(expired, key.(string))
		}
		rec.mu.Unlock()
		return true
	})

	for _, id := range expired {
		s.records.Delete(id)
	}
}
