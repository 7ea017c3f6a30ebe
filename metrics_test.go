package scoregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/portdeveloper/mission7-example-game/session"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricAuthSuccess)

	if got := m.Value(MetricAuthSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)

	if got := m.Value(MetricAuthSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricActionAccepted)
	m.Observe(MetricCommitLatency, time.Millisecond)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must report disabled")
	}
	if got := m.Value(MetricActionAccepted); got != 0 {
		t.Fatalf("expected 0 from nil metrics, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricActionAccepted)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricActionAccepted); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricCommitLatency, 2*time.Millisecond)
	m.Observe(MetricCommitLatency, 30*time.Millisecond)
	m.Observe(MetricCommitLatency, 30*time.Millisecond)
	m.Observe(MetricCommitLatency, 2*time.Second)

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricCommitLatency]
	if !ok {
		t.Fatal("expected commit latency histogram in snapshot")
	}
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 {
		t.Fatalf("expected 1 observation <=5ms, got %d", buckets[0])
	}
	if buckets[3] != 2 {
		t.Fatalf("expected 2 observations <=50ms, got %d", buckets[3])
	}
	if buckets[histBucketCount-1] != 1 {
		t.Fatalf("expected 1 overflow observation, got %d", buckets[histBucketCount-1])
	}
}

func TestMetricsLatencyDisabledByDefault(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricCommitLatency, 10*time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Histograms) != 0 {
		t.Fatalf("expected no histograms without latency enabled, got %v", snap.Histograms)
	}
}

func TestMetricsSnapshotConsistent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthFailure)
	m.Inc(MetricAuthFailure)

	snap := m.Snapshot()
	if snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatalf("expected 1 auth success, got %d", snap.Counters[MetricAuthSuccess])
	}
	if snap.Counters[MetricAuthFailure] != 2 {
		t.Fatalf("expected 2 auth failures, got %d", snap.Counters[MetricAuthFailure])
	}

	// The snapshot is a copy: later increments must not mutate it.
	m.Inc(MetricAuthSuccess)
	if snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatal("snapshot mutated by later increment")
	}
}

func newMeteredEngine(t *testing.T, cfg Config, submitter ScoreSubmitter) *Engine {
	t.Helper()

	if submitter == nil {
		submitter = &stubSubmitter{}
	}
	engine, err := New().
		WithConfig(cfg).
		WithSubmitter(submitter).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func TestEngineCountsAuthFlow(t *testing.T) {
	engine := newMeteredEngine(t, testEngineConfig(), nil)
	key, addr := newWalletKey(t)

	ch, err := engine.Challenge(context.Background(), addr)
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if _, err := engine.Authenticate(context.Background(), addr, ch.Nonce, signChallenge(t, key, ch.Message)); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := engine.Authenticate(context.Background(), addr, ch.Nonce, "0xdeadbeef"); err == nil {
		t.Fatal("expected replay to fail")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricChallengeIssued] != 1 {
		t.Fatalf("expected 1 challenge, got %d", snap.Counters[MetricChallengeIssued])
	}
	if snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatalf("expected 1 auth success, got %d", snap.Counters[MetricAuthSuccess])
	}
	if snap.Counters[MetricAuthFailure] != 1 {
		t.Fatalf("expected 1 auth failure, got %d", snap.Counters[MetricAuthFailure])
	}
}

func TestEngineCountsSuspiciousRejections(t *testing.T) {
	engine := newMeteredEngine(t, testEngineConfig(), nil)
	key, addr := newWalletKey(t)
	token := authenticateWallet(t, engine, key, addr)

	start, err := engine.StartSession(context.Background(), addr, token)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if _, err := engine.SubmitAction(context.Background(), addr, token, start.GameSessionID, session.Action{Type: session.ActionShotFired}); !errors.Is(err, ErrActionTooFrequent) {
		t.Fatalf("expected throttle rejection, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricSessionStarted] != 1 {
		t.Fatalf("expected 1 session start, got %d", snap.Counters[MetricSessionStarted])
	}
	if snap.Counters[MetricActionRejected] != 1 {
		t.Fatalf("expected 1 rejected action, got %d", snap.Counters[MetricActionRejected])
	}
	if snap.Counters[MetricSuspiciousFlagged] != 1 {
		t.Fatalf("expected 1 suspicious flag, got %d", snap.Counters[MetricSuspiciousFlagged])
	}
}

func TestEngineObservesCommitLatency(t *testing.T) {
	submitter := &stubSubmitter{}
	engine := newMeteredEngine(t, testEngineConfig(), submitter)
	key, addr := newWalletKey(t)
	token := authenticateWallet(t, engine, key, addr)
	sessionID := playEndedSession(t, engine, addr, token, 1)

	if _, err := engine.CommitScore(context.Background(), addr, token, sessionID); err != nil {
		t.Fatalf("CommitScore failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricCommitSuccess] != 1 {
		t.Fatalf("expected 1 commit success, got %d", snap.Counters[MetricCommitSuccess])
	}

	total := uint64(0)
	for _, n := range snap.Histograms[MetricCommitLatency] {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected 1 latency observation, got %d", total)
	}
}

func TestEngineMetricsDisabledSnapshotEmpty(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(), nil)
	_, addr := newWalletKey(t)

	if _, err := engine.Challenge(context.Background(), addr); err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty counters while disabled, got %v", snap.Counters)
	}
}
