package scoregate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/portdeveloper/mission7-example-game/internal/stores"
)

// CommitScore describes the commitscore operation and its observable behavior.
//
// CommitScore may return an error when input validation, dependency calls, or security checks fail.
// CommitScore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CommitScore(ctx context.Context, playerAddress, sessionToken, gameSessionID string) (*CommitResult, error) {
	if e == nil || e.sessions == nil || e.dedup == nil || e.submitter == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.checkOrigin(ctx); err != nil {
		return nil, err
	}
	if err := e.checkRate(ctx, e.limiters.commit, "commit", playerAddress); err != nil {
		return nil, err
	}
	if err := e.requireToken(ctx, playerAddress, sessionToken); err != nil {
		return nil, err
	}

	// Only the server-computed score of an ended session is ever committed;
	// no client-supplied number reaches the submitter.
	finalScore, err := e.sessions.FinalScore(gameSessionID, playerAddress)
	if err != nil {
		mapped := mapSessionError(err)
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventCommitFailure, false, playerAddress, gameSessionID, mapped, func() map[string]string {
			return map[string]string{
				"reason": "score_unavailable",
			}
		})
		return nil, mapped
	}

	fingerprint := stores.PayoutFingerprint(playerAddress, finalScore, gameSessionID)

	admitted, err := e.dedup.Begin(ctx, fingerprint)
	if err != nil {
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventCommitFailure, false, playerAddress, gameSessionID, ErrDedupUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "dedup_backend",
			}
		})
		return nil, ErrDedupUnavailable
	}
	if !admitted {
		e.metricInc(MetricCommitDuplicate)
		e.emitAudit(ctx, auditEventCommitDuplicate, false, playerAddress, gameSessionID, ErrDuplicateRequest, func() map[string]string {
			return map[string]string{
				"fingerprint": fingerprint,
			}
		})
		return nil, ErrDuplicateRequest
	}

	submitCtx, cancel := context.WithTimeout(ctx, e.config.Submit.Timeout)
	defer cancel()

	start := time.Now()
	receipt, err := e.submitter.SubmitScore(submitCtx, SubmitRequest{
		PlayerAddress:     playerAddress,
		ScoreAmount:       finalScore,
		TransactionAmount: e.config.Submit.TransactionAmount,
	})
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricCommitLatency, time.Since(start))
	}
	if err == nil && receipt == nil {
		err = errors.New("submitter returned no receipt")
	}

	if err != nil {
		// Reopen the fingerprint so a retry can reattempt the write.
		if relErr := e.dedup.Release(ctx, fingerprint); relErr != nil {
			log.Print("scoregate: dedup release failed after submit error")
		}
		mapped := classifyUpstreamError(err)
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventCommitFailure, false, playerAddress, gameSessionID, mapped, func() map[string]string {
			return map[string]string{
				"fingerprint": fingerprint,
			}
		})
		return nil, mapped
	}

	if err := e.dedup.Complete(ctx, fingerprint); err != nil {
		// The write already landed; losing the completion only weakens
		// duplicate suppression for this fingerprint.
		log.Print("scoregate: dedup completion failed after successful submit")
	}

	e.metricInc(MetricCommitSuccess)
	e.emitAudit(ctx, auditEventCommitSuccess, true, playerAddress, gameSessionID, nil, func() map[string]string {
		return map[string]string{
			"tx_hash": receipt.TxHash,
			"score":   strconv.Itoa(finalScore),
		}
	})

	return &CommitResult{
		TxHash: receipt.TxHash,
		Score:  finalScore,
	}, nil
}

// classifyUpstreamError maps a submitter failure onto the public taxonomy.
func classifyUpstreamError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrExecutionReverted),
		errors.Is(err, ErrUnauthorizedRole):
		return fmt.Errorf("%w: %w", ErrUpstreamWriteFailure, err)
	}

	if cause := matchUpstreamMessage(err); cause != nil {
		return fmt.Errorf("%w: %w: %v", ErrUpstreamWriteFailure, cause, err)
	}

	return fmt.Errorf("%w: %v", ErrUpstreamWriteFailure, err)
}

// matchUpstreamMessage recognizes common node and contract failure strings
// for submitters that surface raw RPC errors instead of typed sentinels.
func matchUpstreamMessage(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "execution reverted"):
		return ErrExecutionReverted
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "missing role"):
		return ErrUnauthorizedRole
	default:
		return nil
	}
}
