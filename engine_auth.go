package scoregate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/portdeveloper/mission7-example-game/wallet"
)

// Challenge describes the challenge operation and its observable behavior.
//
// Challenge may return an error when input validation, dependency calls, or security checks fail.
// Challenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Challenge(ctx context.Context, playerAddress string) (*ChallengeResult, error) {
	if e == nil || e.nonces == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.challenge, "challenge", playerAddress); err != nil {
		return nil, err
	}

	if !common.IsHexAddress(playerAddress) {
		e.emitAudit(ctx, auditEventChallengeFailure, false, playerAddress, "", ErrInvalidAddress, func() map[string]string {
			return map[string]string{
				"reason": "malformed_address",
			}
		})
		return nil, ErrInvalidAddress
	}

	nonce, err := e.nonces.Issue(ctx)
	if err != nil {
		e.emitAudit(ctx, auditEventChallengeFailure, false, playerAddress, "", ErrChallengeUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "nonce_issue_failed",
			}
		})
		return nil, ErrChallengeUnavailable
	}

	e.metricInc(MetricChallengeIssued)
	e.emitAudit(ctx, auditEventChallengeIssued, true, playerAddress, "", nil, nil)

	return &ChallengeResult{
		Nonce:     nonce,
		Message:   wallet.ChallengeMessage(nonce, playerAddress),
		ExpiresIn: e.config.Nonce.TTL,
	}, nil
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authenticate(ctx context.Context, playerAddress, nonce, signature string) (*TokenResult, error) {
	if e == nil || e.nonces == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.verify, "verify", playerAddress); err != nil {
		return nil, err
	}

	// The nonce is spent before the signature is checked: one verification
	// attempt per challenge, failed or not.
	ok, err := e.nonces.Consume(ctx, nonce)
	if err != nil {
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, playerAddress, "", ErrChallengeUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "nonce_backend",
			}
		})
		return nil, ErrChallengeUnavailable
	}
	if !ok {
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, playerAddress, "", ErrInvalidToken, func() map[string]string {
			return map[string]string{
				"reason": "nonce_rejected",
			}
		})
		return nil, ErrInvalidToken
	}

	message := wallet.ChallengeMessage(nonce, playerAddress)
	if !wallet.Verify(playerAddress, message, signature) {
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, playerAddress, "", ErrInvalidToken, func() map[string]string {
			return map[string]string{
				"reason": "signature_rejected",
			}
		})
		return nil, ErrInvalidToken
	}

	sessionToken, expiresAt := e.tokens.Issue(playerAddress)

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, auditEventAuthSuccess, true, playerAddress, "", nil, nil)

	return &TokenResult{
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
	}, nil
}
