package goSession

import "errors"

var (
	// ErrUnauthorized is the generic authentication failure every resolution
	// [Failure] unwraps to.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrOutcomeMissing is returned when no resolution outcome is attached to a
	// request context. It signals a middleware wiring error.
	ErrOutcomeMissing = errors.New("session outcome missing from request context")
	// ErrSubjectNotFound is returned by a UserStore when no subject has the identity.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrAccountExists is returned by a UserStore when the identity is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is returned by Login and ChangePassword for any
	// password or identity mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned by Login when the attempt budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInvalidIdentity is returned by CreateUser for an empty identity.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrSubjectMismatch is returned by ChangePassword when the identity
	// belongs to a different subject than the authenticated session.
	ErrSubjectMismatch = errors.New("identity does not belong to the session subject")
	// ErrEmptyPassword is returned when a new password is empty.
	ErrEmptyPassword = errors.New("empty password")
	// ErrStoreUnavailable wraps user store failures other than not-found.
	ErrStoreUnavailable = errors.New("user store unavailable")
	// ErrSessionIssueFailed is returned when the session cookie could not be written.
	ErrSessionIssueFailed = errors.New("session cookie could not be issued")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
