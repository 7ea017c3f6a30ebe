// Package wallet proves control of an Ethereum-style address over a fixed challenge
// message using personal-sign (EIP-191) signature recovery.
//
// # Challenge format
//
// The canonical challenge is three newline-delimited lines: a fixed preamble, the
// one-time nonce, and the player address. Both sides must reproduce the string
// byte-for-byte; [ChallengeMessage] is the single source of truth for it.
//
// # Architecture boundaries
//
// This package owns signature recovery and address comparison. It does NOT issue or
// consume nonces, mint session tokens, or decide authentication outcomes; those
// responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import the root package, token, or session (no upward imports).
//   - Return errors to callers for malformed input: verification is a boolean verdict.
//   - Hold mutable state: every function is pure.
package wallet
