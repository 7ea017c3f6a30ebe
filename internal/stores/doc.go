// Package stores provides short-lived record stores for the authentication and
// payout flows: one-time challenge nonces and payout deduplication guards.
//
// # Design
//
// Every store exists in two backends with identical observable behavior. The
// in-memory backends keep records in an atomic concurrent map with per-record
// locking and a sweeper goroutine owned by the store's own lifecycle
// (started at construction, stopped by Close, snapshot-then-delete). The Redis
// backends express the same single-key transitions with native primitives:
// GETDEL for nonce consumption, SETNX for dedup admission, KEEPTTL for state
// transitions that must not extend a record's life.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient records.
// It does NOT build challenge messages, verify signatures, or make
// authentication decisions; those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import the root package or any sibling internal package except internal.
//   - Extend a record's TTL on state transition.
//   - Return partial mutations: an operation either transitions a record or
//     leaves it untouched.
package stores
