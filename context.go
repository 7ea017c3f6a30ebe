package scoregate

import "context"

type clientIPContextKey struct{}
type originContextKey struct{}

// WithClientIP attaches the caller’s IP address to ctx. The Engine uses it
// as the rate limit key and records it in audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithOrigin attaches the HTTP Origin header value to ctx. The Engine
// checks it against the configured allowlist before any mutating operation.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func originFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	origin, ok := ctx.Value(originContextKey{}).(string)
	return origin, ok
}
