package token

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrEthical07/goSession/signer"
)

const (
	segmentSeparator = "."
	contentSeparator = "::"
)

var segmentEncoding = base64.RawURLEncoding.Strict()

// Token is a decoded session token. Identity and Expiry are plain text;
// Signature is kept exactly as it appeared on the wire.
type Token struct {
	Identity  string
	Expiry    string
	Signature string
}

// Generate issues a token for identity that expires duration after now,
// signed with s under the subject's token salt.
func Generate(s *signer.Signer, identity, salt string, duration time.Duration, now time.Time) Token {
	expiry := now.Add(duration).UTC().Format(time.RFC3339Nano)
	return Token{
		Identity:  identity,
		Expiry:    expiry,
		Signature: s.Sign(salt, signingContent(identity, expiry)),
	}
}

// String serializes t into its cookie wire form.
func (t Token) String() string {
	var b strings.Builder
	b.Grow(len(t.Identity)*2 + len(t.Expiry)*2 + len(t.Signature) + 2)
	b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(t.Identity)))
	b.WriteString(segmentSeparator)
	b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(t.Expiry)))
	b.WriteString(segmentSeparator)
	b.WriteString(t.Signature)
	return b.String()
}

// Parse decodes the wire form produced by [Token.String]. It checks only the
// structure; signature and expiry are validated separately.
func Parse(raw string) (Token, error) {
	parts := strings.Split(raw, segmentSeparator)
	if len(parts) != 3 {
		return Token{}, ErrInvalidFormat
	}

	identity, err := decodeSegment(parts[0])
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrCannotDecodeIdentity, err)
	}

	expiry, err := decodeSegment(parts[1])
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrCannotDecodeExpiry, err)
	}

	return Token{
		Identity:  identity,
		Expiry:    expiry,
		Signature: parts[2],
	}, nil
}

// ValidateSignature recomputes the signature over the token content with the
// subject's token salt and compares it in constant time.
func (t Token) ValidateSignature(s *signer.Signer, salt string) error {
	if !s.Verify(salt, signingContent(t.Identity, t.Expiry), t.Signature) {
		return ErrSignatureMismatch
	}
	return nil
}

// ExpiresAt parses the expiry as an RFC 3339 timestamp.
func (t Token) ExpiresAt() (time.Time, error) {
	at, err := time.Parse(time.RFC3339Nano, t.Expiry)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrExpiryNotISO, err)
	}
	return at, nil
}

func signingContent(identity, expiry string) string {
	return identity + contentSeparator + expiry
}

func decodeSegment(segment string) (string, error) {
	raw, err := segmentEncoding.DecodeString(segment)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("segment is not valid UTF-8")
	}
	return string(raw), nil
}
