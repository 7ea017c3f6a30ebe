package scoregate

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/portdeveloper/mission7-example-game/session"
)

// StartSession describes the startsession operation and its observable behavior.
//
// StartSession may return an error when input validation, dependency calls, or security checks fail.
// StartSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartSession(ctx context.Context, playerAddress, sessionToken string) (*StartResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.start, "start", playerAddress); err != nil {
		return nil, err
	}
	if err := e.requireToken(ctx, playerAddress, sessionToken); err != nil {
		return nil, err
	}

	gameSessionID := e.sessions.Create(playerAddress)

	e.metricInc(MetricSessionStarted)
	e.emitAudit(ctx, auditEventSessionStarted, true, playerAddress, gameSessionID, nil, nil)

	return &StartResult{GameSessionID: gameSessionID}, nil
}

// SubmitAction describes the submitaction operation and its observable behavior.
//
// SubmitAction may return an error when input validation, dependency calls, or security checks fail.
// SubmitAction does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitAction(ctx context.Context, playerAddress, sessionToken, gameSessionID string, action session.Action) (*ActionResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.action, "action", playerAddress); err != nil {
		return nil, err
	}
	if err := e.requireToken(ctx, playerAddress, sessionToken); err != nil {
		return nil, err
	}

	score, err := e.sessions.ValidateAction(gameSessionID, playerAddress, action)
	if err != nil {
		mapped := mapSessionError(err)
		e.metricInc(MetricActionRejected)
		if Suspicious(mapped) {
			e.metricInc(MetricSuspiciousFlagged)
		}
		e.emitAudit(ctx, auditEventActionRejected, false, playerAddress, gameSessionID, mapped, func() map[string]string {
			return map[string]string{
				"action_type": string(action.Type),
			}
		})
		return nil, mapped
	}

	e.metricInc(MetricActionAccepted)
	e.emitAudit(ctx, auditEventActionAccepted, true, playerAddress, gameSessionID, nil, func() map[string]string {
		return map[string]string{
			"action_type": string(action.Type),
			"score":       strconv.Itoa(score),
		}
	})

	return &ActionResult{CurrentScore: score}, nil
}

// EndSession describes the endsession operation and its observable behavior.
//
// EndSession may return an error when input validation, dependency calls, or security checks fail.
// EndSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EndSession(ctx context.Context, playerAddress, sessionToken, gameSessionID string) (*EndResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.end, "end", playerAddress); err != nil {
		return nil, err
	}
	if err := e.requireToken(ctx, playerAddress, sessionToken); err != nil {
		return nil, err
	}

	finalScore, err := e.sessions.End(gameSessionID, playerAddress)
	if err != nil {
		mapped := mapSessionError(err)
		e.emitAudit(ctx, auditEventSessionEnded, false, playerAddress, gameSessionID, mapped, nil)
		return nil, mapped
	}

	result := &EndResult{FinalScore: finalScore}

	// The session is already terminated at this point; stats enrichment must
	// not undo a successful end.
	if stats, statsErr := e.sessions.Stats(gameSessionID); statsErr == nil {
		result.Stats = SessionStats{
			Score:         stats.Score,
			EnemiesKilled: stats.EnemiesKilled,
			ShotsFired:    stats.ShotsFired,
			Accuracy:      stats.Accuracy,
			Duration:      stats.Duration,
		}
	} else {
		log.Print("scoregate: session stats unavailable after end")
	}

	e.metricInc(MetricSessionEnded)
	e.emitAudit(ctx, auditEventSessionEnded, true, playerAddress, gameSessionID, nil, func() map[string]string {
		return map[string]string{
			"final_score": strconv.Itoa(finalScore),
		}
	})

	return result, nil
}

// SessionStats describes the sessionstats operation and its observable behavior.
//
// SessionStats may return an error when input validation, dependency calls, or security checks fail.
// SessionStats does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SessionStats(gameSessionID string) (*SessionStats, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	stats, err := e.sessions.Stats(gameSessionID)
	if err != nil {
		return nil, mapSessionError(err)
	}

	return &SessionStats{
		Score:         stats.Score,
		EnemiesKilled: stats.EnemiesKilled,
		ShotsFired:    stats.ShotsFired,
		Accuracy:      stats.Accuracy,
		Duration:      stats.Duration,
	}, nil
}

// mapSessionError lifts session store sentinels into the public taxonomy.
func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrMismatch):
		return ErrSessionMismatch
	case errors.Is(err, session.ErrInactive):
		return ErrSessionInactive
	case errors.Is(err, session.ErrExpired):
		return ErrSessionExpired
	case errors.Is(err, session.ErrTooFrequent):
		return ErrActionTooFrequent
	case errors.Is(err, session.ErrRateExceeded):
		return ErrActionRateExceeded
	case errors.Is(err, session.ErrScoreBounds):
		return ErrScoreOutOfBounds
	default:
		return err
	}
}
