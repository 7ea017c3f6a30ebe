package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testPlayer = "0x7ad1e57bf6f2fc4f2c5a5f3c3bd1b1e1d2c3a4b5"

func testConfig() Config {
	return Config{
		MaxDuration:       30 * time.Minute,
		MinActionInterval: 50 * time.Millisecond,
		MaxShotsPerSecond: 10,
		MaxKillsPerSecond: 5,
		KillScore:         10,
		MaxScore:          10000,
		SweepInterval:     5 * time.Minute,
	}
}

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()

	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewStoreValidatesConfig(t *testing.T) {
	for _, bad := range []func(*Config){
		func(c *Config) { c.MaxDuration = 0 },
		func(c *Config) { c.MinActionInterval = 0 },
		func(c *Config) { c.SweepInterval = -time.Second },
		func(c *Config) { c.MaxShotsPerSecond = 0 },
		func(c *Config) { c.MaxKillsPerSecond = -1 },
		func(c *Config) { c.KillScore = 0 },
		func(c *Config) { c.MaxScore = 5; c.KillScore = 10 },
	} {
		cfg := testConfig()
		bad(&cfg)
		if _, err := NewStore(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("config %+v: got %v, want ErrInvalidConfig", cfg, err)
		}
	}
}

func TestCreateOpensActiveSession(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	s.now = func() time.Time { return start }

	id := s.Create(strings.ToUpper(testPlayer))
	if id == "" {
		t.Fatal("create returned empty session id")
	}

	snap, ok := s.Snapshot(id)
	if !ok {
		t.Fatal("snapshot of fresh session missing")
	}
	if !snap.Active {
		t.Fatal("fresh session must be active")
	}
	if snap.PlayerAddress != testPlayer {
		t.Fatalf("owner = %q, want lowercased %q", snap.PlayerAddress, testPlayer)
	}
	if snap.Score != 0 || snap.ShotsFired != 0 || snap.EnemiesKilled != 0 {
		t.Fatalf("fresh counters = %d/%d/%d, want all zero", snap.Score, snap.ShotsFired, snap.EnemiesKilled)
	}
	if snap.ActionCount != 1 {
		t.Fatalf("fresh action count = %d, want 1 (synthetic start)", snap.ActionCount)
	}
	if !snap.StartTime.Equal(start) || !snap.LastActionTime.Equal(start) {
		t.Fatalf("timestamps %v/%v, want both %v", snap.StartTime, snap.LastActionTime, start)
	}
}

func TestValidateActionUnknownSession(t *testing.T) {
	s := newTestStore(t, testConfig())

	if _, err := s.ValidateAction("no-such-id", testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestValidateActionOwnerMismatch(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	_, err := s.ValidateAction(id, "0x0000000000000000000000000000000000000bad", Action{Type: ActionShotFired})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("got %v, want ErrMismatch", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.ShotsFired != 0 || snap.ActionCount != 1 {
		t.Fatalf("rejected action mutated session: shots=%d actions=%d", snap.ShotsFired, snap.ActionCount)
	}
}

func TestValidateActionAddressCaseInsensitive(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	if _, err := s.ValidateAction(id, strings.ToUpper(testPlayer), Action{Type: ActionShotFired}); err != nil {
		t.Fatalf("uppercase owner rejected: %v", err)
	}
}

func TestValidateActionOnEndedSession(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	if _, err := s.End(id, testPlayer); err != nil {
		t.Fatalf("end: %v", err)
	}

	current = current.Add(time.Second)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrInactive) {
		t.Fatalf("got %v, want ErrInactive", err)
	}
}

func TestValidateActionExpiryMarksEnded(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	current = start.Add(31 * time.Minute)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.Active {
		t.Fatal("expired session must be marked ended")
	}

	// Expiry already transitioned the session; later callers see the
	// lifecycle rejection, not the expiry one.
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrInactive) {
		t.Fatalf("got %v, want ErrInactive after expiry transition", err)
	}
}

func TestEndReturnsFinalScoreOnce(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); err != nil {
		t.Fatalf("kill: %v", err)
	}

	current = current.Add(time.Second)
	before, _ := s.Snapshot(id)

	score, err := s.End(id, testPlayer)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if score != 10 {
		t.Fatalf("final score = %d, want 10", score)
	}

	after, _ := s.Snapshot(id)
	if after.Active {
		t.Fatal("ended session still active")
	}
	if after.ActionCount != before.ActionCount+1 {
		t.Fatalf("action count = %d, want %d (synthetic end appended)", after.ActionCount, before.ActionCount+1)
	}

	if _, err := s.End(id, testPlayer); !errors.Is(err, ErrInactive) {
		t.Fatalf("second end: got %v, want ErrInactive", err)
	}
}

func TestEndOwnerMismatch(t *testing.T) {
	s := newTestStore(t, testConfig())

	id := s.Create(testPlayer)
	if _, err := s.End(id, "0x0000000000000000000000000000000000000bad"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("got %v, want ErrMismatch", err)
	}

	snap, _ := s.Snapshot(id)
	if !snap.Active {
		t.Fatal("mismatched end must not close the session")
	}
}

func TestEndUnknownSession(t *testing.T) {
	s := newTestStore(t, testConfig())

	if _, err := s.End("no-such-id", testPlayer); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestFinalScoreRequiresEnded(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	if _, err := s.FinalScore(id, testPlayer); !errors.Is(err, ErrInactive) {
		t.Fatalf("active session final score: got %v, want ErrInactive", err)
	}

	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); err != nil {
		t.Fatalf("kill: %v", err)
	}
	current = current.Add(time.Second)
	if _, err := s.End(id, testPlayer); err != nil {
		t.Fatalf("end: %v", err)
	}

	// Final score reads are repeatable; only End itself is exactly-once.
	for i := 0; i < 3; i++ {
		score, err := s.FinalScore(id, testPlayer)
		if err != nil {
			t.Fatalf("final score read %d: %v", i, err)
		}
		if score != 10 {
			t.Fatalf("final score read %d = %d, want 10", i, score)
		}
	}

	if _, err := s.FinalScore(id, "0x0000000000000000000000000000000000000bad"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("foreign final score: got %v, want ErrMismatch", err)
	}
}

func TestGameEndedActionDeactivates(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionGameEnded}); err != nil {
		t.Fatalf("game_ended action: %v", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.Active {
		t.Fatal("game_ended action must deactivate the session")
	}
	if _, err := s.FinalScore(id, testPlayer); err != nil {
		t.Fatalf("final score after game_ended action: %v", err)
	}
}

func TestUnknownActionTypeRecorded(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)
	current = current.Add(time.Second)

	score, err := s.ValidateAction(id, testPlayer, Action{Type: "power_up", Data: map[string]any{"kind": "shield"}})
	if err != nil {
		t.Fatalf("unrecognized action type rejected: %v", err)
	}
	if score != 0 {
		t.Fatalf("score = %d, want 0 (no counter attached)", score)
	}

	snap, _ := s.Snapshot(id)
	if snap.ActionCount != 2 {
		t.Fatalf("action count = %d, want 2", snap.ActionCount)
	}
	if snap.ShotsFired != 0 || snap.EnemiesKilled != 0 {
		t.Fatal("unrecognized action type must not touch counters")
	}
}

func TestStatsAccuracy(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	for i := 0; i < 3; i++ {
		current = current.Add(100 * time.Millisecond)
		if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}
	}
	current = current.Add(100 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); err != nil {
		t.Fatalf("kill: %v", err)
	}

	current = current.Add(100 * time.Millisecond)
	if _, err := s.End(id, testPlayer); err != nil {
		t.Fatalf("end: %v", err)
	}

	stats, err := s.Stats(id)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Score != 10 || stats.ShotsFired != 3 || stats.EnemiesKilled != 1 {
		t.Fatalf("stats = %+v, want score 10, shots 3, kills 1", stats)
	}
	if stats.Accuracy != 33.33 {
		t.Fatalf("accuracy = %v, want 33.33 (1/3 rounded to 2 decimals)", stats.Accuracy)
	}
	if want := 500 * time.Millisecond; stats.Duration != want {
		t.Fatalf("duration = %v, want %v", stats.Duration, want)
	}
}

func TestStatsZeroShots(t *testing.T) {
	s := newTestStore(t, testConfig())

	id := s.Create(testPlayer)
	stats, err := s.Stats(id)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Accuracy != 0 {
		t.Fatalf("accuracy with zero shots = %v, want 0", stats.Accuracy)
	}
}

func TestStatsUnknownSession(t *testing.T) {
	s := newTestStore(t, testConfig())

	if _, err := s.Stats("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLenAndActiveCount(t *testing.T) {
	s := newTestStore(t, testConfig())

	a := s.Create(testPlayer)
	s.Create(testPlayer)

	if got := s.Len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
	if got := s.ActiveCount(); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}

	if _, err := s.End(a, testPlayer); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("len after end = %d, want 2 (ended stays until swept)", got)
	}
	if got := s.ActiveCount(); got != 1 {
		t.Fatalf("active after end = %d, want 1", got)
	}
}
