package scoregate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/portdeveloper/mission7-example-game/internal/audit"
	"github.com/portdeveloper/mission7-example-game/session"
)

// ChallengeResult is returned by [Engine.Challenge]. Message is the exact
// text the wallet must sign; the nonce inside it is single-use.
type ChallengeResult struct {
	Nonce     string
	Message   string
	ExpiresIn time.Duration
}

// TokenResult is returned by [Engine.Authenticate]. The session token is an
// opaque secret-derived digest; clients present it on every gameplay call.
type TokenResult struct {
	SessionToken string
	ExpiresAt    time.Time
}

// StartResult is returned by [Engine.StartSession].
type StartResult struct {
	GameSessionID string
}

// ActionResult is returned by [Engine.SubmitAction]. CurrentScore is the
// server-computed running score after the action was accepted.
type ActionResult struct {
	CurrentScore int
}

// EndResult is returned by [Engine.EndSession]. FinalScore is the only score
// the commit path will accept.
type EndResult struct {
	FinalScore int
	Stats      SessionStats
}

// CommitResult is returned by [Engine.CommitScore] once the upstream write
// was acknowledged.
type CommitResult struct {
	TxHash string
	Score  int
}

// SessionStats is the per-session report returned by [Engine.SessionStats].
// Accuracy is kills per shot as a percentage, rounded to two decimals.
type SessionStats struct {
	Score         int
	EnemiesKilled int
	ShotsFired    int
	Accuracy      float64
	Duration      time.Duration
}

// SubmitRequest is the input for [ScoreSubmitter.SubmitScore].
// TransactionAmount is the upstream transfer unit count; the engine always
// sends 1 per commit.
type SubmitRequest struct {
	PlayerAddress     string
	ScoreAmount       int
	TransactionAmount int
}

// TxReceipt is the upstream acknowledgement returned by
// [ScoreSubmitter.SubmitScore].
type TxReceipt struct {
	TxHash      string
	BlockNumber uint64
}

// ScoreSubmitter is the interface callers must implement to integrate the
// engine with their score ledger. Implementations typically wrap a contract
// binding; errors they return are classified by [Engine.CommitScore] into
// the upstream failure taxonomy.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, req SubmitRequest) (*TxReceipt, error)
}

// NonceStore issues single-use challenge nonces and consumes them exactly
// once. The engine ships memory and Redis implementations; custom backends
// plug in through [Builder.WithNonceStore].
type NonceStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, value string) (bool, error)
	Close()
}

// SessionStore tracks game sessions and runs the per-action anti-cheat
// checks. The default is the in-memory [session.Store]; custom backends
// plug in through [Builder.WithSessionStore].
type SessionStore interface {
	Create(playerAddress string) string
	ValidateAction(sessionID, playerAddress string, action session.Action) (int, error)
	End(sessionID, playerAddress string) (int, error)
	FinalScore(sessionID, playerAddress string) (int, error)
	Stats(sessionID string) (*session.Stats, error)
	ActiveCount() int
	Close()
}

// DedupStore guards commit idempotency. Begin atomically admits the first
// caller for a request id; Complete pins the suppression record; Release
// reopens the id after an upstream failure.
type DedupStore interface {
	Begin(ctx context.Context, id string) (bool, error)
	IsDuplicate(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	Close()
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
