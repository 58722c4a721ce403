package password

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/signer"
)

const recordTagMark = "#"

// Scheme identifies the algorithm that produced a credential record.
type Scheme string

const (
	// SchemeHMAC signs the raw password with the password key.
	SchemeHMAC Scheme = "01"
	// SchemeArgon2 stretches the password with Argon2id, then signs the result.
	SchemeArgon2 Scheme = "02"
)

// Input is the material a credential record is computed from.
type Input struct {
	Salt    string
	Content string
}

type scheme interface {
	encode(in Input) (string, error)
	verify(in Input, value string) bool
	stale(value string) bool
}

// Option customizes a Codec.
type Option func(*Codec)

// WithScheme sets the scheme used by Encode. Defaults to SchemeHMAC.
func WithScheme(s Scheme) Option {
	return func(c *Codec) {
		c.current = s
	}
}

// WithArgon2Params sets the cost parameters used by SchemeArgon2 for new records.
func WithArgon2Params(p Argon2Params) Option {
	return func(c *Codec) {
		c.argon2 = p
	}
}

// Codec encodes and verifies credential records. It is immutable after
// NewCodec and safe for concurrent use.
type Codec struct {
	current Scheme
	argon2  Argon2Params
	schemes map[Scheme]scheme
}

// NewCodec builds a Codec keyed with key.
//
// NewCodec fails when the key cannot initialize the signer, when the current
// scheme is unknown, or when the Argon2 parameters are below the floor.
func NewCodec(key signer.Key, opts ...Option) (*Codec, error) {
	s, err := signer.New(key)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		current: SchemeHMAC,
		argon2:  DefaultArgon2Params(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.argon2.validate(); err != nil {
		return nil, err
	}

	c.schemes = map[Scheme]scheme{
		SchemeHMAC:   hmacScheme{signer: s},
		SchemeArgon2: argon2Scheme{signer: s, params: c.argon2},
	}
	if _, ok := c.schemes[c.current]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, c.current)
	}

	return c, nil
}

// Scheme returns the scheme used by Encode.
func (c *Codec) Scheme() Scheme {
	return c.current
}

// Encode produces a tagged record with the current scheme.
func (c *Codec) Encode(in Input) (string, error) {
	value, err := c.schemes[c.current].encode(in)
	if err != nil {
		return "", err
	}
	return formatRecord(c.current, value), nil
}

// Verify recomputes the record for in using the stored record's scheme and
// compares the two in constant time. Every failure is ErrPasswordMismatch.
func (c *Codec) Verify(in Input, stored string) error {
	tag, value, ok := parseRecord(stored)
	if !ok {
		return ErrPasswordMismatch
	}
	impl, ok := c.schemes[tag]
	if !ok {
		return ErrPasswordMismatch
	}
	if !impl.verify(in, value) {
		return ErrPasswordMismatch
	}
	return nil
}

// schemeStrength orders schemes from weakest to strongest. Unknown tags rank
// below every known scheme.
var schemeStrength = map[Scheme]int{
	SchemeHMAC:   1,
	SchemeArgon2: 2,
}

// Stronger reports whether a ranks above b.
func (a Scheme) Stronger(b Scheme) bool {
	return schemeStrength[a] > schemeStrength[b]
}

// NeedsUpgrade reports whether stored should be re-encoded with the current
// scheme: it comes from a weaker scheme, or from the current scheme with
// weaker parameters. Records from a stronger scheme are never flagged, so a
// codec configured for SchemeHMAC does not downgrade Argon2 records.
func (c *Codec) NeedsUpgrade(stored string) bool {
	tag, value, ok := parseRecord(stored)
	if !ok {
		return true
	}
	if tag != c.current {
		return c.current.Stronger(tag)
	}
	return c.schemes[tag].stale(value)
}

// SchemeOf returns the scheme tag of stored.
func SchemeOf(stored string) (Scheme, bool) {
	tag, _, ok := parseRecord(stored)
	return tag, ok
}

func formatRecord(s Scheme, value string) string {
	return recordTagMark + string(s) + recordTagMark + value
}

func parseRecord(stored string) (Scheme, string, bool) {
	rest, ok := strings.CutPrefix(stored, recordTagMark)
	if !ok {
		return "", "", false
	}
	tag, value, ok := strings.Cut(rest, recordTagMark)
	if !ok || tag == "" || value == "" {
		return "", "", false
	}
	return Scheme(tag), value, true
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type hmacScheme struct {
	signer *signer.Signer
}

func (h hmacScheme) encode(in Input) (string, error) {
	return h.signer.Sign(in.Salt, in.Content), nil
}

func (h hmacScheme) verify(in Input, value string) bool {
	return h.signer.Verify(in.Salt, in.Content, value)
}

func (hmacScheme) stale(string) bool {
	return false
}
