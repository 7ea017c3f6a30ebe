package session

import (
	"errors"
	"testing"
	"time"
)

func TestMinIntervalThrottle(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	// The synthetic start action seeds the interval clock.
	current = start.Add(30 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrTooFrequent) {
		t.Fatalf("30ms after open: got %v, want ErrTooFrequent", err)
	}

	current = start.Add(50 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
		t.Fatalf("exactly 50ms after open: %v", err)
	}

	current = current.Add(49 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrTooFrequent) {
		t.Fatalf("49ms gap: got %v, want ErrTooFrequent", err)
	}

	// A throttled action must not reset the interval clock.
	current = current.Add(1 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
		t.Fatalf("50ms after last accepted action: %v", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.ShotsFired != 2 {
		t.Fatalf("accepted shots = %d, want 2", snap.ShotsFired)
	}
}

func TestShotBurstCapInTrailingSecond(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	for i := 0; i < 10; i++ {
		current = current.Add(50 * time.Millisecond)
		if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}
	}

	current = current.Add(50 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); !errors.Is(err, ErrRateExceeded) {
		t.Fatalf("11th shot in trailing second: got %v, want ErrRateExceeded", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.ShotsFired != 10 {
		t.Fatalf("shots after rejection = %d, want 10", snap.ShotsFired)
	}

	// The window trails the clock: once enough early shots age out, fire
	// is admitted again.
	current = start.Add(1200 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
		t.Fatalf("shot after window slide: %v", err)
	}
}

func TestKillBurstCapInTrailingSecond(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	for i := 0; i < 5; i++ {
		current = current.Add(50 * time.Millisecond)
		if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); err != nil {
			t.Fatalf("kill %d: %v", i, err)
		}
	}

	current = current.Add(50 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); !errors.Is(err, ErrRateExceeded) {
		t.Fatalf("6th kill in trailing second: got %v, want ErrRateExceeded", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.EnemiesKilled != 5 || snap.Score != 50 {
		t.Fatalf("kills/score after rejection = %d/%d, want 5/50", snap.EnemiesKilled, snap.Score)
	}
}

func TestKillScoreAccrual(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, testConfig())
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	for i := 1; i <= 8; i++ {
		current = current.Add(300 * time.Millisecond)
		score, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled})
		if err != nil {
			t.Fatalf("kill %d: %v", i, err)
		}
		if want := i * 10; score != want {
			t.Fatalf("score after kill %d = %d, want %d", i, score, want)
		}
	}
}

func TestScoreCapRejectsWholeAction(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScore = 30

	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, cfg)
	current := start
	s.now = func() time.Time { return current }

	id := s.Create(testPlayer)

	for i := 0; i < 3; i++ {
		current = current.Add(300 * time.Millisecond)
		if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); err != nil {
			t.Fatalf("kill %d: %v", i, err)
		}
	}

	before, _ := s.Snapshot(id)

	current = current.Add(300 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionEnemyKilled}); !errors.Is(err, ErrScoreBounds) {
		t.Fatalf("kill past cap: got %v, want ErrScoreBounds", err)
	}

	// Whole-action rejection: no kill counted, no partial score, no log entry.
	after, _ := s.Snapshot(id)
	if after.Score != before.Score || after.EnemiesKilled != before.EnemiesKilled || after.ActionCount != before.ActionCount {
		t.Fatalf("rejected kill mutated session: before %+v, after %+v", before, after)
	}
	if after.Score != 30 {
		t.Fatalf("score = %d, want to hold at the 30 cap", after.Score)
	}

	// Non-scoring actions still flow after the cap is hit.
	current = current.Add(300 * time.Millisecond)
	if _, err := s.ValidateAction(id, testPlayer, Action{Type: ActionShotFired}); err != nil {
		t.Fatalf("shot after cap: %v", err)
	}
}
