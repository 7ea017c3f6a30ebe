package rate

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShardCount = 16

type windowEntry struct {
	start time.Time
	count int
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// MemoryLimiter is the in-process [Limiter] backend: sharded counter maps so
// unrelated client keys never contend on one lock, swept by a goroutine owned
// by the limiter's own lifecycle.
type MemoryLimiter struct {
	config Config
	shards [memoryShardCount]memoryShard

	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

// NewMemory creates an in-memory fixed-window limiter and starts its sweeper.
func NewMemory(cfg Config) (*MemoryLimiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := &MemoryLimiter{
		config: cfg,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*windowEntry)
	}

	l.wg.Add(1)
	go l.sweep()

	return l, nil
}

// Check counts one request against clientKey's live window.
func (l *MemoryLimiter) Check(_ context.Context, clientKey string) (Result, error) {
	now := l.now()
	shard := &l.shards[shardIndex(clientKey)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	e, ok := shard.entries[clientKey]
	if !ok || now.Sub(e.start) >= l.config.Window {
		e = &windowEntry{start: now}
		shard.entries[clientKey] = e
	}
	e.count++

	remaining := l.config.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   e.count <= l.config.MaxRequests,
		Remaining: remaining,
		ResetAt:   e.start.Add(l.config.Window),
	}, nil
}

// Close stops the sweeper. Pending entries are released to the collector.
func (l *MemoryLimiter) Close() {
	close(l.done)
	l.wg.Wait()
}

func (l *MemoryLimiter) sweep() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.Window)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweepOnce()
		}
	}
}

func (l *MemoryLimiter) sweepOnce() {
	now := l.now()

	for i := range l.shards {
		shard := &l.shards[i]

		// Snapshot expired keys first, then delete in a second pass.
		shard.mu.Lock()
		var expired []string
		for key, e := range shard.entries {
			if now.Sub(e.start) >= l.config.Window {
				expired = append(expired, key)
			}
		}
		for _, key := range expired {
			delete(shard.entries, key)
		}
		shard.mu.Unlock()
	}
}

func shardIndex(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % memoryShardCount)
}
