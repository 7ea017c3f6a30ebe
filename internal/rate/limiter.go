package rate

import (
	"context"
	"time"
)

// Config holds the fixed-window budget for one endpoint category.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

func (c Config) validate() error {
	if c.MaxRequests <= 0 || c.Window <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result reports the outcome of one limiter check. ResetAt is the instant the
// live window ends, usable for Retry-After style responses.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a fixed-window request budget per client key. Every call
// counts against the window, including denied ones.
type Limiter interface {
	Check(ctx context.Context, clientKey string) (Result, error)
	Close()
}

func limiterKey(name, clientKey string) string {
	return "rl:" + name + ":" + clientKey
}
