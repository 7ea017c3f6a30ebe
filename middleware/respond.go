package middleware

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	scoregate "github.com/portdeveloper/mission7-example-game"
)

type errorBody struct {
	Error      string `json:"error"`
	Suspicious bool   `json:"suspicious,omitempty"`
}

// StatusFromError maps the engine error taxonomy onto HTTP status codes.
// Anti-cheat rejections return 400 like any other validation failure; the
// suspicious flag in the response body is what marks them. Unknown errors
// map to 500.
func StatusFromError(err error) int {
	var rl *scoregate.RateLimitError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &rl), errors.Is(err, scoregate.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, scoregate.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, scoregate.ErrInvalidOrigin):
		return http.StatusForbidden
	case errors.Is(err, scoregate.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, scoregate.ErrInvalidAddress),
		errors.Is(err, scoregate.ErrSessionNotFound),
		errors.Is(err, scoregate.ErrSessionMismatch),
		errors.Is(err, scoregate.ErrSessionInactive),
		errors.Is(err, scoregate.ErrSessionExpired),
		errors.Is(err, scoregate.ErrActionTooFrequent),
		errors.Is(err, scoregate.ErrActionRateExceeded),
		errors.Is(err, scoregate.ErrScoreOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, scoregate.ErrChallengeUnavailable),
		errors.Is(err, scoregate.ErrRateLimitUnavailable),
		errors.Is(err, scoregate.ErrDedupUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, scoregate.ErrUpstreamWriteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error response. Rate limit rejections
// carry a Retry-After header; anti-cheat rejections are flagged suspicious in
// the body.
func WriteError(w http.ResponseWriter, err error) {
	var rl *scoregate.RateLimitError
	if errors.As(err, &rl) {
		if secs := math.Ceil(time.Until(rl.ResetAt).Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(secs)))
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(StatusFromError(err))
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:      err.Error(),
		Suspicious: scoregate.Suspicious(err),
	})
}
