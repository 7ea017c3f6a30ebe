// Package token derives and validates short-lived session tokens bound to
// (wallet address, coarse time bucket) with no server-side token storage.
//
// # Derivation
//
// A token is HMAC-SHA256(secret, lowercase(address) + ":" + bucket), hex encoded,
// where bucket is the unix-millisecond clock divided into fixed slots (30s by
// default). Validation recomputes the digest for every bucket in the trailing
// validity window and accepts on any match, which tolerates clock skew across
// the window without keeping per-token state.
//
// # What this package must NOT do
//
//   - Import the root package, wallet, or session (no upward imports).
//   - Persist anything: validity is recomputation, never lookup.
package token
