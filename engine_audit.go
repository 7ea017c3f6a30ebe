package scoregate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventChallengeIssued    = "challenge_issued"
	auditEventChallengeFailure   = "challenge_failure"
	auditEventAuthSuccess        = "wallet_auth_success"
	auditEventAuthFailure        = "wallet_auth_failure"
	auditEventSessionStarted     = "game_session_started"
	auditEventActionAccepted     = "action_accepted"
	auditEventActionRejected     = "action_rejected"
	auditEventSessionEnded       = "game_session_ended"
	auditEventCommitSuccess      = "score_commit_success"
	auditEventCommitDuplicate    = "score_commit_duplicate"
	auditEventCommitFailure      = "score_commit_failure"
	auditEventRateLimitTriggered = "rate_limit_triggered"
	auditEventOriginRejected     = "origin_rejected"
	auditEventTokenRejected      = "token_rejected"
)

// AuditErrorCode defines a public type used by scoregate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidOrigin     AuditErrorCode = "invalid_origin"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrInvalidToken      AuditErrorCode = "invalid_token"
	auditErrInvalidAddress    AuditErrorCode = "invalid_address"
	auditErrSessionNotFound   AuditErrorCode = "session_not_found"
	auditErrSessionMismatch   AuditErrorCode = "session_mismatch"
	auditErrSessionInactive   AuditErrorCode = "session_inactive"
	auditErrSessionExpired    AuditErrorCode = "session_expired"
	auditErrActionTooFrequent AuditErrorCode = "action_too_frequent"
	auditErrActionRate        AuditErrorCode = "action_rate_exceeded"
	auditErrScoreBounds       AuditErrorCode = "score_out_of_bounds"
	auditErrDuplicate         AuditErrorCode = "duplicate"
	auditErrInsufficientFunds AuditErrorCode = "insufficient_funds"
	auditErrReverted          AuditErrorCode = "execution_reverted"
	auditErrUnauthorizedRole  AuditErrorCode = "unauthorized_role"
	auditErrUpstreamWrite     AuditErrorCode = "upstream_write_failed"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	playerAddress string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		PlayerAddress: playerAddress,
		SessionID:     sessionID,
		IP:            clientIPFromContext(ctx),
		Success:       success,
		Suspicious:    Suspicious(err),
		Metadata:      metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	playerAddress string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, playerAddress, "", nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidOrigin):
		return auditErrInvalidOrigin
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrInvalidAddress):
		return auditErrInvalidAddress
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionMismatch):
		return auditErrSessionMismatch
	case errors.Is(err, ErrSessionInactive):
		return auditErrSessionInactive
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrActionTooFrequent):
		return auditErrActionTooFrequent
	case errors.Is(err, ErrActionRateExceeded):
		return auditErrActionRate
	case errors.Is(err, ErrScoreOutOfBounds):
		return auditErrScoreBounds
	case errors.Is(err, ErrDuplicateRequest):
		return auditErrDuplicate
	case errors.Is(err, ErrInsufficientFunds):
		return auditErrInsufficientFunds
	case errors.Is(err, ErrExecutionReverted):
		return auditErrReverted
	case errors.Is(err, ErrUnauthorizedRole):
		return auditErrUnauthorizedRole
	case errors.Is(err, ErrUpstreamWriteFailure):
		return auditErrUpstreamWrite
	case errors.Is(err, ErrChallengeUnavailable),
		errors.Is(err, ErrRateLimitUnavailable),
		errors.Is(err, ErrDedupUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
