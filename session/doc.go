// Package session owns the game-session lifecycle state machine: creation,
// per-action anti-cheat validation, scoring, termination, and expiry.
//
// # State machine
//
// A session is Active from creation until an explicit end, a game_ended action,
// or detected expiry; it never returns to Active. Accepted actions append to a
// strictly time-ordered log and advance the last-action clock. Validation
// rejects mismatched owners, inactive or expired sessions, sub-interval action
// bursts, and per-second shot/kill rates or score totals outside the configured
// bounds. Timestamps are server-assigned: client-supplied times are never
// trusted.
//
// # Concurrency
//
// Each session record carries its own mutex; the store map is guarded by a
// read-write lock used only for lookup, insert, and delete, so unrelated
// sessions never contend. A sweeper owned by the store lifecycle removes
// sessions idle past the maximum duration, snapshot-then-delete.
//
// # What this package must NOT do
//
//   - Authenticate players or validate session tokens (the Engine does).
//   - Talk to the network: state is process memory, rebuilt empty on restart.
//   - Import the root package, wallet, or token (no upward imports).
package session
