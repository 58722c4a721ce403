package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/goSession/signer"
)

var testKey = signer.Key(strings.Repeat("p", 64))

// lightArgon2 keeps scheme 02 tests fast while staying above the floor.
func lightArgon2() Argon2Params {
	return Argon2Params{Memory: minMemoryKB, Time: 1, Parallelism: 1, KeyLength: 16}
}

func newCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(testKey, opts...)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestEncodeVerifyHMAC(t *testing.T) {
	c := newCodec(t)
	in := Input{Salt: "s1", Content: "hunter2"}

	record, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !strings.HasPrefix(record, "#01#") {
		t.Fatalf("unexpected record prefix: %q", record)
	}
	if strings.Contains(record, "hunter2") {
		t.Fatal("record contains plaintext")
	}
	if err := c.Verify(in, record); err != nil {
		t.Fatalf("Verify error: %v", err)
	}
}

func TestEncodeDeterministicForScheme01(t *testing.T) {
	c := newCodec(t)
	in := Input{Salt: "s1", Content: "hunter2"}

	a, _ := c.Encode(in)
	b, _ := c.Encode(in)
	if a != b {
		t.Fatalf("expected deterministic records, got %q and %q", a, b)
	}
}

func TestVerifyMismatches(t *testing.T) {
	c := newCodec(t)
	record, err := c.Encode(Input{Salt: "s1", Content: "hunter2"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	cases := map[string]Input{
		"wrong password": {Salt: "s1", Content: "hunter3"},
		"wrong salt":     {Salt: "s2", Content: "hunter2"},
	}
	for name, in := range cases {
		if err := c.Verify(in, record); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("%s: expected ErrPasswordMismatch, got %v", name, err)
		}
	}
}

func TestVerifyDifferentKeyFails(t *testing.T) {
	c := newCodec(t)
	other, err := NewCodec(signer.Key(strings.Repeat("q", 64)))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	in := Input{Salt: "s1", Content: "hunter2"}
	record, _ := c.Encode(in)

	if err := other.Verify(in, record); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch under a different key, got %v", err)
	}
}

func TestVerifyRejectsMalformedRecords(t *testing.T) {
	c := newCodec(t)
	in := Input{Salt: "s1", Content: "hunter2"}
	valid, _ := c.Encode(in)
	bare := strings.TrimPrefix(valid, "#01#")

	for _, stored := range []string{
		"",
		bare,
		"#01",
		"##" + bare,
		"#01#",
		"#99#" + bare,
		"01#" + bare,
	} {
		if err := c.Verify(in, stored); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("Verify(%q): expected ErrPasswordMismatch, got %v", stored, err)
		}
	}
}

func TestSchemeOf(t *testing.T) {
	if s, ok := SchemeOf("#02#abc"); !ok || s != SchemeArgon2 {
		t.Fatalf("unexpected SchemeOf result: %q %v", s, ok)
	}
	if _, ok := SchemeOf("plain"); ok {
		t.Fatal("expected untagged record to be rejected")
	}
}

func TestNewCodecRejectsUnknownScheme(t *testing.T) {
	if _, err := NewCodec(testKey, WithScheme("07")); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
}

func TestNewCodecRejectsEmptyKey(t *testing.T) {
	if _, err := NewCodec(nil); !errors.Is(err, signer.ErrKeyFailure) {
		t.Fatalf("expected signer.ErrKeyFailure, got %v", err)
	}
}
