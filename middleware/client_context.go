package middleware

import (
	"net"
	"net/http"
	"strings"

	scoregate "github.com/portdeveloper/mission7-example-game"
)

// ClientContext copies the Origin header and client IP into the request
// context so the engine's origin check and rate limiter can see them. Mount
// it outside every scoregate route.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if origin := r.Header.Get("Origin"); origin != "" {
			ctx = scoregate.WithOrigin(ctx, origin)
		}
		if ip := clientIP(r); ip != "" {
			ctx = scoregate.WithClientIP(ctx, ip)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the socket
// peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
