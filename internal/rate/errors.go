package rate

import "errors"

var (
	// ErrInvalidConfig is an exported constant or variable used by the validation engine.
	ErrInvalidConfig = errors.New("invalid rate limit config")
	// ErrRedisUnavailable is an exported constant or variable used by the validation engine.
	ErrRedisUnavailable = errors.New("rate redis unavailable")
)
