package signer

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	// registers SHA-512 with crypto so the HS512 method is available
	_ "crypto/sha512"

	"github.com/golang-jwt/jwt/v5"
)

// ErrKeyFailure is returned by [New] when the keyed-digest primitive cannot be
// initialized with the supplied key.
var ErrKeyFailure = errors.New("signing key failure")

// Key is secret key material. Its String and GoString forms are redacted so a
// key never reaches logs through fmt.
type Key []byte

// String implements fmt.Stringer.
func (Key) String() string { return "[redacted]" }

// GoString implements fmt.GoStringer.
func (Key) GoString() string { return "[redacted]" }

// Signer produces and checks keyed signatures. It is immutable after [New]
// and safe for concurrent use.
type Signer struct {
	key    []byte
	method *jwt.SigningMethodHMAC
}

// New returns a Signer bound to a private copy of key.
//
// New fails with [ErrKeyFailure] when key is empty or HMAC-SHA512 is not
// available in this build.
func New(key Key) (*Signer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrKeyFailure)
	}

	method := jwt.SigningMethodHS512
	if !method.Hash.Available() {
		return nil, fmt.Errorf("%w: %s unavailable", ErrKeyFailure, method.Alg())
	}

	owned := make([]byte, len(key))
	copy(owned, key)

	if _, err := method.Sign("", owned); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFailure, err)
	}

	return &Signer{key: owned, method: method}, nil
}

// Sign returns the base64url (unpadded) HMAC-SHA512 digest of content
// followed by salt. It is deterministic for fixed key, salt and content.
func (s *Signer) Sign(salt, content string) string {
	digest, err := s.method.Sign(content+salt, s.key)
	if err != nil {
		// New already exercised the primitive with this key.
		panic(fmt.Sprintf("signer: keyed digest failed after successful init: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(digest)
}

// Verify reports whether signature is the signature of (salt, content). The
// comparison runs in constant time with respect to the signature contents.
func (s *Signer) Verify(salt, content, signature string) bool {
	expected := s.Sign(salt, content)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
