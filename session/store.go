package session

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNotFound is an exported constant or variable used by the validation engine.
var ErrNotFound = errors.New("game session not found")

// ErrMismatch is returned when the caller address does not own the session.
var ErrMismatch = errors.New("game session owner mismatch")

// ErrInactive is returned when the session is not in the lifecycle state the
// operation needs.
var ErrInactive = errors.New("game session inactive")

// ErrExpired is returned when the session outlived the maximum duration; the
// session is marked Ended on detection.
var ErrExpired = errors.New("game session expired")

// ErrTooFrequent is returned when an action arrives inside the per-session
// minimum interval.
var ErrTooFrequent = errors.New("action too frequent")

// ErrRateExceeded is returned when the trailing-window rate cap for the action
// type is already met.
var ErrRateExceeded = errors.New("action rate exceeded")

// ErrScoreBounds is returned when accepting the action would push the score
// past the configured maximum.
var ErrScoreBounds = errors.New("score out of bounds")

// ErrInvalidConfig is an exported constant or variable used by the validation engine.
var ErrInvalidConfig = errors.New("invalid session store config")

// Config defines a public type used by scoregate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	MaxDuration       time.Duration
	MinActionInterval time.Duration
	MaxShotsPerSecond int
	MaxKillsPerSecond int
	KillScore         int
	MaxScore          int
	SweepInterval     time.Duration
}

func (c Config) validate() error {
	if c.MaxDuration <= 0 || c.MinActionInterval <= 0 || c.SweepInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxShotsPerSecond <= 0 || c.MaxKillsPerSecond <= 0 {
		return ErrInvalidConfig
	}
	if c.KillScore <= 0 || c.MaxScore < c.KillScore {
		return ErrInvalidConfig
	}
	return nil
}

type record struct {
	mu sync.Mutex

	id            string
	playerAddress string
	startTime     time.Time
	lastAction    time.Time
	actions       []Action
	score         int
	enemiesKilled int
	shotsFired    int
	active        bool
}

// Store is the in-memory game-session state machine. Sessions are single-writer
// per entry under concurrent access: ownership is checked under the record
// mutex, and the store lock covers only map lookup, insert, and delete.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*record

	config Config

	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

// NewStore creates the session store and starts its sweeper.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Store{
		sessions: make(map[string]*record),
		config:   cfg,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweep()

	return s, nil
}

// Create opens an Active session for the player with zeroed counters and a
// synthetic game_started action.
func (s *Store) Create(playerAddress string) string {
	now := s.now()
	rec := &record{
		id:            uuid.NewString(),
		playerAddress: strings.ToLower(playerAddress),
		startTime:     now,
		lastAction:    now,
		actions:       []Action{{Type: ActionGameStarted, Timestamp: now}},
		active:        true,
	}

	s.mu.Lock()
	s.sessions[rec.id] = rec
	s.mu.Unlock()

	return rec.id
}

// ValidateAction runs the anti-cheat checks for one action and, on acceptance,
// appends it with a server-assigned timestamp and returns the current score.
// Every rejection leaves the session untouched, except expiry detection which
// marks the session Ended.
func (s *Store) ValidateAction(sessionID, playerAddress string, action Action) (int, error) {
	rec, ok := s.get(sessionID)
	if !ok {
		return 0, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !strings.EqualFold(playerAddress, rec.playerAddress) {
		return 0, ErrMismatch
	}
	if !rec.active {
		return 0, ErrInactive
	}

	now := s.now()
	if now.Sub(rec.startTime) > s.config.MaxDuration {
		rec.active = false
		return 0, ErrExpired
	}
	if now.Sub(rec.lastAction) < s.config.MinActionInterval {
		return 0, ErrTooFrequent
	}

	switch action.Type {
	case ActionShotFired:
		if rec.trailingCount(ActionShotFired, now) >= s.config.MaxShotsPerSecond {
			return 0, ErrRateExceeded
		}
		rec.shotsFired++

	case ActionEnemyKilled:
		if rec.trailingCount(ActionEnemyKilled, now) >= s.config.MaxKillsPerSecond {
			return 0, ErrRateExceeded
		}
		// The cap check precedes every mutation: a rejected kill leaves no trace.
		if rec.score+s.config.KillScore > s.config.MaxScore {
			return 0, ErrScoreBounds
		}
		rec.enemiesKilled++
		rec.score += s.config.KillScore

	case ActionGameEnded:
		rec.active = false
	}

	rec.actions = append(rec.actions, Action{Type: action.Type, Timestamp: now, Data: action.Data})
	rec.lastAction = now

	return rec.score, nil
}

// End transitions Active→Ended exactly once under concurrency, appends a
// synthetic game_ended action, and returns the final score. A second caller
// observes ErrInactive.
func (s *Store) End(sessionID, playerAddress string) (int, error) {
	rec, ok := s.get(sessionID)
	if !ok {
		return 0, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !strings.EqualFold(playerAddress, rec.playerAddress) {
		return 0, ErrMismatch
	}
	if !rec.active {
		return 0, ErrInactive
	}

	now := s.now()
	rec.active = false
	rec.actions = append(rec.actions, Action{Type: ActionGameEnded, Timestamp: now})
	rec.lastAction = now

	return rec.score, nil
}

// FinalScore returns the server-computed score of an Ended session owned by
// the player. Sessions still Active yield ErrInactive: the score is not final
// until the session ends.
func (s *Store) FinalScore(sessionID, playerAddress string) (int, error) {
	rec, ok := s.get(sessionID)
	if !ok {
		return 0, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !strings.EqualFold(playerAddress, rec.playerAddress) {
		return 0, ErrMismatch
	}
	if rec.active {
		return 0, ErrInactive
	}

	return rec.score, nil
}

// Stats reports score, counters, derived accuracy, and the session duration.
func (s *Store) Stats(sessionID string) (*Stats, error) {
	rec, ok := s.get(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	accuracy := 0.0
	if rec.shotsFired > 0 {
		accuracy = math.Round(float64(rec.enemiesKilled)/float64(rec.shotsFired)*100*100) / 100
	}

	duration := rec.lastAction.Sub(rec.startTime)
	if rec.active {
		duration = s.now().Sub(rec.startTime)
	}

	return &Stats{
		Score:         rec.score,
		EnemiesKilled: rec.enemiesKilled,
		ShotsFired:    rec.shotsFired,
		Accuracy:      accuracy,
		Duration:      duration,
	}, nil
}

// Snapshot returns a read-only copy of the session for inspection.
func (s *Store) Snapshot(sessionID string) (*Snapshot, bool) {
	rec, ok := s.get(sessionID)
	if !ok {
		return nil, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return &Snapshot{
		ID:             rec.id,
		PlayerAddress:  rec.playerAddress,
		StartTime:      rec.startTime,
		LastActionTime: rec.lastAction,
		Score:          rec.score,
		EnemiesKilled:  rec.enemiesKilled,
		ShotsFired:     rec.shotsFired,
		ActionCount:    len(rec.actions),
		Active:         rec.active,
	}, true
}

// Len reports the number of tracked sessions, ended ones included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ActiveCount reports the number of sessions currently Active.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	records := lo.Values(s.sessions)
	s.mu.RUnlock()

	n := 0
	for _, rec := range records {
		rec.mu.Lock()
		if rec.active {
			n++
		}
		rec.mu.Unlock()
	}
	return n
}

// Close stops the sweeper.
func (s *Store) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Store) get(sessionID string) (*record, bool) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	return rec, ok
}

// trailingCount counts same-type actions inside the trailing one-second span.
// The action log is time-ordered, so the walk stops at the first entry outside
// the span.
func (r *record) trailingCount(t ActionType, now time.Time) int {
	cutoff := now.Add(-time.Second)

	n := 0
	for i := len(r.actions) - 1; i >= 0; i-- {
		a := r.actions[i]
		if !a.Timestamp.After(cutoff) {
			break
		}
		if a.Type == t {
			n++
		}
	}
	return n
}

func (s *Store) sweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
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

// sweepOnce removes sessions idle beyond the maximum duration. Candidates are
// snapshotted first and deletion happens in a second pass; foreground access
// stays safe throughout.
func (s *Store) sweepOnce() {
	now := s.now()

	s.mu.RLock()
	records := lo.Values(s.sessions)
	s.mu.RUnlock()

	var expired []string
	for _, rec := range records {
		rec.mu.Lock()
		if now.Sub(rec.lastAction) > s.config.MaxDuration {
			rec.active = false
			expired = append(expired, rec.id)
		}
		rec.mu.Unlock()
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}
