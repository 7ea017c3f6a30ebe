// Package rate provides fixed-window request throttling primitives keyed by
// client identity, parameterized per endpoint category.
//
// # Window semantics
//
// Fixed-window counters anchored at the first hit: every check increments, the
// counter resets once the window elapses since its start, and a check is denied
// when the count exceeds the configured maximum inside the live window. The
// Redis backend expresses this as INCR + conditional EXPIRE on first hit; the
// in-memory backend keeps sharded counter entries with a lifecycle-owned sweep.
// Redis key prefix: rl:<endpoint>:<clientKey>.
//
// # What this package must NOT do
//
//   - Decide which endpoint category a request belongs to (the Engine does).
//   - Be imported outside this module.
package rate
