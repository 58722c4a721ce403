// Package goSession provides cookie-based session authentication built on a
// signed, expiring session token and a keyed, versioned password-at-rest format.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Request pipeline
//
// [Engine.Resolve] turns the session cookie of a request into an [Outcome]: either a
// [ResolvedContext] naming the authenticated subject, or a [Failure] whose [FailureKind]
// says why resolution stopped. Resolution never rejects a request by itself. The
// middleware package attaches the Outcome to the request context, and only handlers that
// require authentication turn a failure into a 401.
//
// Tokens close to expiry are re-issued during resolution (sliding expiration). Rotating a
// subject's token salt with [Engine.RotateTokenSalt] invalidates every token issued for it.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Outcome, Subject, MetricsSnapshot). Token and credential formats live in the token and
// password packages; storage backends implement [UserStore] under store/.
//
// # What this package must NOT do
//
//   - Log keys, salts, passwords or token text.
//   - Write a cookie before a token has been fully validated.
//   - Make authorization decisions beyond "is there an authenticated subject".
package goSession
