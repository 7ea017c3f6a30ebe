// Package middleware exposes net/http adapters that connect scoregate engine
// validation to HTTP transports: client context injection, a session token
// guard, and error rendering for the engine taxonomy.
//
// # Handlers
//
//   - [ClientContext] copies Origin and client IP into the request context.
//   - [RequireSession] rejects requests without a valid session token.
//   - [WriteError] renders engine errors with taxonomy-mapped status codes.
//
// RequireSession reads the X-Player-Address header and the Authorization
// bearer token, calls Engine.ValidateToken, and injects the validated address
// into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement validation logic itself; every decision is delegated to the
// engine.
//
// # What this package must NOT do
//
//   - Verify signatures or tokens directly (delegates to the Engine).
//   - Touch Redis or any store (the Engine handles I/O).
//   - Make gameplay decisions beyond pass/reject from engine validation.
package middleware
