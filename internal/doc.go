// Package internal contains helper utilities that are intentionally private to the
// engine, currently secure random generation for challenge nonces.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - rate: fixed-window rate limit primitives (in-memory and Redis backends)
//   - stores: challenge-nonce and payout-dedup stores (in-memory and Redis backends)
//
// # What this package must NOT do
//
//   - Export types that appear in the public API.
//   - Be imported by any package outside this module.
package internal
