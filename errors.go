package scoregate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidOrigin is an exported constant or variable used by the validation engine.
	ErrInvalidOrigin = errors.New("request origin not allowed")
	// ErrRateLimited is an exported constant or variable used by the validation engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidToken is an exported constant or variable used by the validation engine.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrInvalidAddress is an exported constant or variable used by the validation engine.
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrSessionNotFound is an exported constant or variable used by the validation engine.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionMismatch is an exported constant or variable used by the validation engine.
	ErrSessionMismatch = errors.New("game session does not belong to caller")
	// ErrSessionInactive is an exported constant or variable used by the validation engine.
	ErrSessionInactive = errors.New("game session not active")
	// ErrSessionExpired is an exported constant or variable used by the validation engine.
	ErrSessionExpired = errors.New("game session expired")
	// ErrActionTooFrequent is an exported constant or variable used by the validation engine.
	ErrActionTooFrequent = errors.New("action submitted too frequently")
	// ErrActionRateExceeded is an exported constant or variable used by the validation engine.
	ErrActionRateExceeded = errors.New("action rate exceeded")
	// ErrScoreOutOfBounds is an exported constant or variable used by the validation engine.
	ErrScoreOutOfBounds = errors.New("score out of bounds")
	// ErrDuplicateRequest is an exported constant or variable used by the validation engine.
	ErrDuplicateRequest = errors.New("duplicate score submission")
	// ErrUpstreamWriteFailure is an exported constant or variable used by the validation engine.
	ErrUpstreamWriteFailure = errors.New("upstream score write failed")
	// ErrInsufficientFunds is an exported constant or variable used by the validation engine.
	ErrInsufficientFunds = errors.New("insufficient funds for score payout")
	// ErrExecutionReverted is an exported constant or variable used by the validation engine.
	ErrExecutionReverted = errors.New("score transaction reverted")
	// ErrUnauthorizedRole is an exported constant or variable used by the validation engine.
	ErrUnauthorizedRole = errors.New("submitter lacks payout role")
	// ErrChallengeUnavailable is an exported constant or variable used by the validation engine.
	ErrChallengeUnavailable = errors.New("challenge backend unavailable")
	// ErrRateLimitUnavailable is an exported constant or variable used by the validation engine.
	ErrRateLimitUnavailable = errors.New("rate limit backend unavailable")
	// ErrDedupUnavailable is an exported constant or variable used by the validation engine.
	ErrDedupUnavailable = errors.New("deduplication backend unavailable")
	// ErrSecretRequired is an exported constant or variable used by the validation engine.
	ErrSecretRequired = errors.New("server session secret required")
	// ErrSubmitterRequired is an exported constant or variable used by the validation engine.
	ErrSubmitterRequired = errors.New("score submitter required")
	// ErrEngineNotReady is an exported constant or variable used by the validation engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError defines a public type used by scoregate APIs.
//
// RateLimitError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitError struct {
	Endpoint string
	ResetAt  time.Time
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited until %s", e.Endpoint, e.ResetAt.UTC().Format(time.RFC3339))
}

// Is describes the is operation and its observable behavior.
//
// Is may return an error when input validation, dependency calls, or security checks fail.
// Is does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Suspicious describes the suspicious operation and its observable behavior.
//
// Suspicious may return an error when input validation, dependency calls, or security checks fail.
// Suspicious does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Suspicious(err error) bool {
	switch {
	case errors.Is(err, ErrActionTooFrequent),
		errors.Is(err, ErrActionRateExceeded),
		errors.Is(err, ErrScoreOutOfBounds):
		return true
	}
	return false
}
