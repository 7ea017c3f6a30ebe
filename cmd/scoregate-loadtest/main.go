// Command scoregate-loadtest drives full protocol rounds against an
// in-process engine: wallet login, session start, a burst of actions, end,
// and score commit. It reports per-phase latency percentiles.
//
// Anti-cheat thresholds are relaxed so the run measures engine throughput
// rather than rejection rates; rate limit budgets are effectively unbounded.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	scoregate "github.com/portdeveloper/mission7-example-game"
	"github.com/portdeveloper/mission7-example-game/client"
	"github.com/portdeveloper/mission7-example-game/session"
)

type playerState struct {
	sess *client.Session
	mu   sync.Mutex
}

func main() {
	var (
		players     = flag.Int("players", 500, "number of wallets to seed")
		ops         = flag.Int("ops", 2000, "operations per phase (login + round)")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		shots       = flag.Int("shots", 3, "shots fired per round")
		kills       = flag.Int("kills", 1, "enemies killed per round")
		rps         = flag.Int("rps", 0, "paced operations per second; 0 disables pacing")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *players <= 0 || *ops <= 0 || *concurrency <= 0 || *shots < 0 || *kills < 0 {
		fmt.Fprintln(os.Stderr, "players, ops, and concurrency must be > 0; shots and kills must be >= 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := buildEngine(rdb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	var pacer *rate.Limiter
	if *rps > 0 {
		pacer = rate.NewLimiter(rate.Every(time.Second/time.Duration(*rps)), *concurrency)
	}

	states := make([]*playerState, *players)
	fmt.Printf("seeding %d players...\n", *players)
	startSeed := time.Now()
	for i := range states {
		signer, err := client.GenerateSigner()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate signer: %v\n", err)
			os.Exit(1)
		}
		sess, err := client.NewSession(engine, signer, signer.Address())
		if err != nil {
			fmt.Fprintf(os.Stderr, "new session: %v\n", err)
			os.Exit(1)
		}
		if err := sess.Login(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "seed login: %v\n", err)
			os.Exit(1)
		}
		states[i] = &playerState{sess: sess}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(ctx, states, *ops, *concurrency, pacer, func(ctx context.Context, state *playerState) error {
		return state.sess.Login(ctx)
	})
	roundStats := runPhase(ctx, states, *ops, *concurrency, pacer, func(ctx context.Context, state *playerState) error {
		return playRound(ctx, state.sess, *shots, *kills)
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("round", roundStats)
	printCounters(engine)
}

// buildEngine assembles a Redis-backed engine tuned for throughput: huge rate
// budgets and a minimal action throttle so the harness measures the hot path.
func buildEngine(rdb *redis.Client) (*scoregate.Engine, error) {
	cfg := scoregate.DefaultConfig()
	cfg.Token.SecretKey = []byte("loadtest-secret")
	cfg.Session.MinActionInterval = time.Nanosecond
	cfg.Session.MaxShotsPerSecond = 1 << 20
	cfg.Session.MaxKillsPerSecond = 1 << 20
	cfg.Session.MaxScore = 1 << 30

	unbounded := scoregate.EndpointLimit{MaxRequests: 1 << 30, Window: time.Minute}
	cfg.RateLimit = scoregate.RateLimitConfig{
		Challenge: unbounded,
		Verify:    unbounded,
		Start:     unbounded,
		Action:    unbounded,
		End:       unbounded,
		Commit:    unbounded,
	}

	return scoregate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSubmitter(instantSubmitter{}).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
}

func playRound(ctx context.Context, sess *client.Session, shots, kills int) error {
	if err := sess.Start(ctx); err != nil {
		return err
	}
	for i := 0; i < shots; i++ {
		if _, err := sess.SubmitAction(ctx, session.ActionShotFired, nil); err != nil {
			return err
		}
	}
	for i := 0; i < kills; i++ {
		if _, err := sess.SubmitAction(ctx, session.ActionEnemyKilled, nil); err != nil {
			return err
		}
	}
	if _, err := sess.End(ctx); err != nil {
		return err
	}
	_, err := sess.CommitScore(ctx)
	return err
}

func runPhase(ctx context.Context, states []*playerState, ops, concurrency int, pacer *rate.Limiter, op func(context.Context, *playerState) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				if pacer != nil {
					if err := pacer.Wait(ctx); err != nil {
						atomic.AddInt64(&failures, 1)
						continue
					}
				}

				state := states[r.Intn(len(states))]
				state.mu.Lock()
				t0 := time.Now()
				err := op(ctx, state)
				d := time.Since(t0)
				state.mu.Unlock()

				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func printCounters(engine *scoregate.Engine) {
	snapshot := engine.MetricsSnapshot()
	rows := []struct {
		name string
		id   scoregate.MetricID
	}{
		{"auth_success", scoregate.MetricAuthSuccess},
		{"sessions_started", scoregate.MetricSessionStarted},
		{"actions_accepted", scoregate.MetricActionAccepted},
		{"actions_rejected", scoregate.MetricActionRejected},
		{"commits", scoregate.MetricCommitSuccess},
		{"commit_failures", scoregate.MetricCommitFailure},
	}
	fmt.Println("---- engine counters ----")
	for _, row := range rows {
		fmt.Printf("%s=%d\n", row.name, snapshot.Counters[row.id])
	}
}

type instantSubmitter struct{}

func (instantSubmitter) SubmitScore(_ context.Context, _ scoregate.SubmitRequest) (*scoregate.TxReceipt, error) {
	return &scoregate.TxReceipt{TxHash: "0xloadtest", BlockNumber: 1}, nil
}
