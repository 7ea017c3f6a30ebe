package scoregate

import (
	"context"
	"strings"

	internalaudit "github.com/portdeveloper/mission7-example-game/internal/audit"
	"github.com/portdeveloper/mission7-example-game/internal/rate"
	"github.com/portdeveloper/mission7-example-game/token"
	"github.com/samber/lo"
)

// Engine defines a public type used by scoregate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	tokens    *token.Codec
	nonces    NonceStore
	sessions  SessionStore
	dedup     DedupStore
	submitter ScoreSubmitter
	limiters  endpointLimiters
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
}

type endpointLimiters struct {
	challenge rate.Limiter
	verify    rate.Limiter
	start     rate.Limiter
	action    rate.Limiter
	end       rate.Limiter
	commit    rate.Limiter
}

func (l endpointLimiters) closeAll() {
	for _, limiter := range []rate.Limiter{
		l.challenge, l.verify, l.start, l.action, l.end, l.commit,
	} {
		if limiter != nil {
			limiter.Close()
		}
	}
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.nonces != nil {
		e.nonces.Close()
	}
	if e.sessions != nil {
		e.sessions.Close()
	}
	if e.dedup != nil {
		e.dedup.Close()
	}
	e.limiters.closeAll()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ActiveSessions describes the activesessions operation and its observable behavior.
//
// ActiveSessions may return an error when input validation, dependency calls, or security checks fail.
// ActiveSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ActiveSessions() int {
	if e == nil || e.sessions == nil {
		return 0
	}
	return e.sessions.ActiveCount()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// checkOrigin rejects requests whose Origin header is absent from the
// allowlist. An empty allowlist disables the check.
func (e *Engine) checkOrigin(ctx context.Context) error {
	allowed := e.config.Origin.AllowedOrigins
	if len(allowed) == 0 {
		return nil
	}

	origin, present := originFromContext(ctx)
	if !present || origin == "" {
		if e.config.Origin.AllowEmpty {
			return nil
		}
		e.metricInc(MetricOriginRejected)
		e.emitAudit(ctx, auditEventOriginRejected, false, "", "", ErrInvalidOrigin, func() map[string]string {
			return map[string]string{
				"reason": "missing_origin",
			}
		})
		return ErrInvalidOrigin
	}

	if !lo.Contains(allowed, origin) {
		e.metricInc(MetricOriginRejected)
		e.emitAudit(ctx, auditEventOriginRejected, false, "", "", ErrInvalidOrigin, func() map[string]string {
			return map[string]string{
				"origin": origin,
			}
		})
		return ErrInvalidOrigin
	}

	return nil
}

// checkRate counts one request against the endpoint limiter, keyed by client
// IP when the transport attached one and by wallet address otherwise.
func (e *Engine) checkRate(ctx context.Context, limiter rate.Limiter, scope, playerAddress string) error {
	if limiter == nil {
		return nil
	}

	key := clientIPFromContext(ctx)
	if key == "" {
		key = strings.ToLower(playerAddress)
	}
	if key == "" {
		key = "anonymous"
	}

	res, err := limiter.Check(ctx, key)
	if err != nil {
		// Fail closed: an unreachable limiter backend must not waive the budget.
		return ErrRateLimitUnavailable
	}
	if !res.Allowed {
		e.emitRateLimit(ctx, scope, playerAddress, nil)
		return &RateLimitError{Endpoint: scope, ResetAt: res.ResetAt}
	}

	return nil
}

// ValidateToken describes the validatetoken operation and its observable behavior.
//
// ValidateToken may return an error when input validation, dependency calls, or security checks fail.
// ValidateToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// ValidateToken runs the same token check every gameplay operation performs but
// counts nothing against rate limits; transports use it to gate routes.
func (e *Engine) ValidateToken(ctx context.Context, playerAddress, sessionToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.requireToken(ctx, playerAddress, sessionToken)
}

// requireToken gates gameplay operations on a valid session token for the
// claimed wallet address.
func (e *Engine) requireToken(ctx context.Context, playerAddress, sessionToken string) error {
	if e.tokens == nil {
		return ErrEngineNotReady
	}
	if !e.tokens.Validate(sessionToken, playerAddress) {
		e.metricInc(MetricTokenInvalid)
		e.emitAudit(ctx, auditEventTokenRejected, false, playerAddress, "", ErrInvalidToken, nil)
		return ErrInvalidToken
	}
	return nil
}
