// Package token implements the session token wire format.
//
// A token is three dot-separated, unpadded base64url segments:
//
//	b64u(identity).b64u(expiry).signature
//
// The expiry is an RFC 3339 UTC timestamp with nanosecond precision. The
// signature is the [signer.Signer] output over identity + "::" + expiry keyed
// with the subject's token salt, carried as-is since it is already base64url.
//
// This package never reads the wall clock; callers pass "now" to [Generate]
// and compare [Token.ExpiresAt] themselves.
package token
