// Package scoregate provides a wallet-authentication and anti-cheat session
// validation engine that gates blockchain score submissions: nonce-based
// proof of wallet ownership, stateless HMAC session tokens, an in-memory game
// session state machine with per-action heuristics, and a deduplication guard
// in front of the payout writer.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// scoregate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (ChallengeResult, TokenResult, MetricsSnapshot, etc.). All
// internal coordination (nonce and dedup storage, rate limiting, audit
// dispatch) lives under internal/ and is never exported. The wallet, token,
// and session packages are importable on their own for callers that need the
// primitives without the pipeline.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or digest details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Accept a client-supplied score anywhere on the commit path.
//   - Import any sub-package that re-imports scoregate (no import cycles).
//
// # Performance contract
//
// SubmitAction is the hot path. Token validation is pure recomputation with no
// store lookups, and action validation takes one lock on the session record.
// Challenge, Authenticate, and CommitScore are allowed one backend round-trip
// per store they touch.
package scoregate
