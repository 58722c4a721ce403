package password

import "errors"

var (
	// ErrPasswordMismatch is the only verification failure. It covers wrong
	// passwords, unknown scheme tags and malformed records alike.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrUnknownScheme is returned by NewCodec for an unsupported current scheme.
	ErrUnknownScheme = errors.New("unknown password scheme")
	// ErrInvalidArgon2Params is returned by NewCodec for Argon2 parameters below the floor.
	ErrInvalidArgon2Params = errors.New("invalid argon2 parameters")
)
