package token

import "errors"

var (
	// ErrInvalidFormat is returned when a token does not have exactly three segments.
	ErrInvalidFormat = errors.New("token: invalid format")
	// ErrCannotDecodeIdentity is returned when the identity segment is not base64url UTF-8 text.
	ErrCannotDecodeIdentity = errors.New("token: cannot decode identity")
	// ErrCannotDecodeExpiry is returned when the expiry segment is not base64url UTF-8 text.
	ErrCannotDecodeExpiry = errors.New("token: cannot decode expiry")
	// ErrSignatureMismatch is returned when the signature does not match the token content.
	ErrSignatureMismatch = errors.New("token: signature mismatch")
	// ErrExpiryNotISO is returned when the expiry is not an RFC 3339 timestamp.
	ErrExpiryNotISO = errors.New("token: expiry is not an RFC 3339 timestamp")
)
