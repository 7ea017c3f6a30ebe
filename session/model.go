package session

import "time"

// ActionType defines a public type used by scoregate APIs.
//
// ActionType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ActionType string

const (
	// ActionShotFired is an exported constant or variable used by the validation engine.
	ActionShotFired ActionType = "shot_fired"
	// ActionEnemyKilled is an exported constant or variable used by the validation engine.
	ActionEnemyKilled ActionType = "enemy_killed"
	// ActionGameStarted is an exported constant or variable used by the validation engine.
	ActionGameStarted ActionType = "game_started"
	// ActionGameEnded is an exported constant or variable used by the validation engine.
	ActionGameEnded ActionType = "game_ended"
)

// Action defines a public type used by scoregate APIs.
//
// Action instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Action struct {
	Type      ActionType
	Timestamp time.Time
	Data      map[string]any
}

// Stats defines a public type used by scoregate APIs.
//
// Stats instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Stats struct {
	Score         int
	EnemiesKilled int
	ShotsFired    int
	Accuracy      float64
	Duration      time.Duration
}

// Snapshot defines a public type used by scoregate APIs.
//
// Snapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Snapshot struct {
	ID             string
	PlayerAddress  string
	StartTime      time.Time
	LastActionTime time.Time
	Score          int
	EnemiesKilled  int
	ShotsFired     int
	ActionCount    int
	Active         bool
}
