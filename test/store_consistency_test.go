//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/portdeveloper/mission7-example-game/internal/stores"
)

// The memory and Redis backends must be interchangeable: the same call
// sequence produces the same observable outcome on both. Each test below
// runs its script against every backend.

type dedupBackend interface {
	Begin(ctx context.Context, id string) (bool, error)
	IsDuplicate(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	State(ctx context.Context, id string) (stores.DedupState, bool)
	Close()
}

type nonceBackend interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, value string) (bool, error)
	Close()
}

func eachDedupBackend(t *testing.T, run func(t *testing.T, store dedupBackend)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		store := stores.NewMemoryDedup(time.Minute, time.Minute)
		defer store.Close()
		run(t, store)
	})

	t.Run("redis", func(t *testing.T) {
		for _, mode := range redisModes(t) {
			t.Run(mode.name, func(t *testing.T) {
				rdb, cleanup := mode.setup(t)
				defer cleanup()

				store := stores.NewRedisDedup(rdb, testPrefix("sgtest:dedup"), time.Minute)
				defer store.Close()
				run(t, store)
			})
		}
	})
}

func eachNonceBackend(t *testing.T, run func(t *testing.T, store nonceBackend)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		store := stores.NewMemoryNonce(time.Minute, time.Minute)
		defer store.Close()
		run(t, store)
	})

	t.Run("redis", func(t *testing.T) {
		for _, mode := range redisModes(t) {
			t.Run(mode.name, func(t *testing.T) {
				rdb, cleanup := mode.setup(t)
				defer cleanup()

				store := stores.NewRedisNonce(rdb, testPrefix("sgtest:nonce"), time.Minute)
				defer store.Close()
				run(t, store)
			})
		}
	})
}

func TestStoreConsistencyReleaseIsIdempotent(t *testing.T) {
	eachDedupBackend(t, func(t *testing.T, store dedupBackend) {
		ctx := context.Background()

		if _, err := store.Begin(ctx, "payout-1"); err != nil {
			t.Fatalf("begin failed: %v", err)
		}
		if err := store.Release(ctx, "payout-1"); err != nil {
			t.Fatalf("first release failed: %v", err)
		}
		if err := store.Release(ctx, "payout-1"); err != nil {
			t.Fatalf("second release failed: %v", err)
		}
		if err := store.Release(ctx, "never-begun"); err != nil {
			t.Fatalf("release of unknown id failed: %v", err)
		}

		admitted, err := store.Begin(ctx, "payout-1")
		if err != nil || !admitted {
			t.Fatalf("begin after release: admitted=%v err=%v, want true nil", admitted, err)
		}
	})
}

func TestStoreConsistencyCompleteWithoutBegin(t *testing.T) {
	eachDedupBackend(t, func(t *testing.T, store dedupBackend) {
		ctx := context.Background()

		// A record evicted mid-flight must be recreated on Complete so the
		// guard stays closed.
		if err := store.Complete(ctx, "evicted-mid-flight"); err != nil {
			t.Fatalf("complete failed: %v", err)
		}

		admitted, err := store.Begin(ctx, "evicted-mid-flight")
		if err != nil {
			t.Fatalf("begin errored: %v", err)
		}
		if admitted {
			t.Fatal("completed id admitted")
		}

		state, ok := store.State(ctx, "evicted-mid-flight")
		if !ok || state != stores.DedupComplete {
			t.Fatalf("state = %v ok=%v, want DedupComplete true", state, ok)
		}
	})
}

func TestStoreConsistencyStateTransitions(t *testing.T) {
	eachDedupBackend(t, func(t *testing.T, store dedupBackend) {
		ctx := context.Background()

		if _, ok := store.State(ctx, "payout-2"); ok {
			t.Fatal("state reported for unknown id")
		}

		if _, err := store.Begin(ctx, "payout-2"); err != nil {
			t.Fatalf("begin failed: %v", err)
		}
		state, ok := store.State(ctx, "payout-2")
		if !ok || state != stores.DedupProcessing {
			t.Fatalf("state after begin = %v ok=%v, want DedupProcessing true", state, ok)
		}

		if err := store.Complete(ctx, "payout-2"); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		state, ok = store.State(ctx, "payout-2")
		if !ok || state != stores.DedupComplete {
			t.Fatalf("state after complete = %v ok=%v, want DedupComplete true", state, ok)
		}

		// Complete is idempotent.
		if err := store.Complete(ctx, "payout-2"); err != nil {
			t.Fatalf("repeat complete failed: %v", err)
		}
		dup, err := store.IsDuplicate(ctx, "payout-2")
		if err != nil || !dup {
			t.Fatalf("IsDuplicate = %v err=%v, want true nil", dup, err)
		}
	})
}

func TestStoreConsistencyNonceIsolation(t *testing.T) {
	eachNonceBackend(t, func(t *testing.T, store nonceBackend) {
		ctx := context.Background()

		first, err := store.Issue(ctx)
		if err != nil {
			t.Fatalf("first issue failed: %v", err)
		}
		second, err := store.Issue(ctx)
		if err != nil {
			t.Fatalf("second issue failed: %v", err)
		}
		if first == second {
			t.Fatal("two issues produced the same nonce")
		}

		// Spending one nonce leaves the other live.
		if ok, err := store.Consume(ctx, first); err != nil || !ok {
			t.Fatalf("consume first: ok=%v err=%v, want true nil", ok, err)
		}
		if ok, err := store.Consume(ctx, second); err != nil || !ok {
			t.Fatalf("consume second: ok=%v err=%v, want true nil", ok, err)
		}
	})
}
