package middleware

import (
	"context"
	"net/http"
	"strings"

	scoregate "github.com/portdeveloper/mission7-example-game"
)

// HeaderPlayerAddress names the request header carrying the caller's wallet
// address. The session token travels as an Authorization bearer token.
const HeaderPlayerAddress = "X-Player-Address"

type playerContextKey struct{}

// PlayerFromContext returns the wallet address a [RequireSession] guard
// validated for this request.
func PlayerFromContext(ctx context.Context) (string, bool) {
	player, ok := ctx.Value(playerContextKey{}).(string)
	return player, ok
}

// RequireSession rejects requests that do not present a valid session token
// for the wallet address named in the X-Player-Address header. The validated
// address is injected into the request context for downstream handlers.
func RequireSession(engine *scoregate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, scoregate.ErrEngineNotReady)
				return
			}

			player := r.Header.Get(HeaderPlayerAddress)
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if player == "" || !ok {
				WriteError(w, scoregate.ErrInvalidToken)
				return
			}

			if err := engine.ValidateToken(r.Context(), player, token); err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey{}, player)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
