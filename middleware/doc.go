// Package middleware exposes net/http adapters for the two-phase session gate
// built on top of goSession.Engine resolution.
//
// # Phases
//
//   - [Resolve]: runs on every request, attaches the resolution outcome to the
//     request context and never rejects.
//   - [Require]: rejects requests whose attached outcome is a failure with a
//     generic 401.
//   - [SubjectFromRequest]: capability extractor for handlers that need the
//     authenticated subject.
//
// [NewCookieJar] adapts one request/response pair to goSession.CookieJar so
// handlers can call Engine.Login and Engine.Logoff with the same cookie
// attributes the gate uses.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself; all decisions are delegated to Engine.Resolve.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Put failure details in HTTP responses.
//   - Make authorization decisions beyond "is there an authenticated subject".
package middleware
