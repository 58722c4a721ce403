// Package rate throttles failed logins with fixed-window Redis counters.
//
// Each failed attempt increments a counter for the identity and, when IP
// throttling is on, one for the client IP. A single-key Lua script bumps a
// counter and arms the window TTL on the first hit. A pair is refused once
// either counter reaches the configured budget, and a successful login
// deletes both.
//
// Every command and script call names exactly one key, so the limiter works
// against Redis Cluster through redis.UniversalClient.
//
// Keys:
//
//	gsl:<sha256(lower(identity))[:16]>
//	gsli:<ip>
package rate
