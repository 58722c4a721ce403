package rate

import "errors"

// ErrRateLimited means a login budget is spent for the current window.
var ErrRateLimited = errors.New("rate: login budget exhausted")

// ErrRedisUnavailable wraps any failed Redis round-trip.
var ErrRedisUnavailable = errors.New("rate: redis unavailable")
