package password

import (
	"errors"
	"strings"
	"testing"
)

func TestArgon2EncodeAndVerify(t *testing.T) {
	c := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(lightArgon2()))
	in := Input{Salt: "0b6c3f0e-5a0e-4b5e-9c1f-3d4a0d2b7e11", Content: "P@ssw0rd-Ascii"}

	record, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !strings.HasPrefix(record, "#02#m=8192,t=1,p=1,l=16$") {
		t.Fatalf("unexpected record prefix: %s", record)
	}
	if err := c.Verify(in, record); err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	wrong := Input{Salt: in.Salt, Content: "wrong-password"}
	if err := c.Verify(wrong, record); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestVerifyDispatchesOnStoredScheme(t *testing.T) {
	legacy := newCodec(t)
	current := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(lightArgon2()))
	in := Input{Salt: "s1", Content: "hunter2"}

	legacyRecord, err := legacy.Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := current.Verify(in, legacyRecord); err != nil {
		t.Fatalf("scheme 02 codec failed to verify scheme 01 record: %v", err)
	}

	newRecord, err := current.Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := legacy.Verify(in, newRecord); err != nil {
		t.Fatalf("scheme 01 codec failed to verify scheme 02 record: %v", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	legacy := newCodec(t)
	weak := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(lightArgon2()))
	stronger := lightArgon2()
	stronger.Time = 2
	strong := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(stronger))

	in := Input{Salt: "s1", Content: "hunter2"}
	legacyRecord, _ := legacy.Encode(in)
	weakRecord, _ := weak.Encode(in)

	if !weak.NeedsUpgrade(legacyRecord) {
		t.Fatal("expected scheme 01 record to need upgrade under scheme 02")
	}
	if legacy.NeedsUpgrade(legacyRecord) {
		t.Fatal("did not expect current-scheme record to need upgrade")
	}
	if weak.NeedsUpgrade(weakRecord) {
		t.Fatal("did not expect record with matching params to need upgrade")
	}
	if !strong.NeedsUpgrade(weakRecord) {
		t.Fatal("expected record with weaker params to need upgrade")
	}
	if !legacy.NeedsUpgrade("garbage") {
		t.Fatal("expected malformed record to need upgrade")
	}
}

func TestNeedsUpgradeNeverDowngrades(t *testing.T) {
	legacy := newCodec(t)
	argon := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(lightArgon2()))

	record, err := argon.Encode(Input{Salt: "s1", Content: "hunter2"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if legacy.NeedsUpgrade(record) {
		t.Fatal("scheme 01 codec must not flag a scheme 02 record")
	}
	if err := legacy.Verify(Input{Salt: "s1", Content: "hunter2"}, record); err != nil {
		t.Fatalf("scheme 01 codec must still verify scheme 02 records: %v", err)
	}
	if !SchemeArgon2.Stronger(SchemeHMAC) || SchemeHMAC.Stronger(SchemeArgon2) {
		t.Fatal("unexpected scheme ordering")
	}
	if !SchemeHMAC.Stronger(Scheme("99")) {
		t.Fatal("unknown schemes must rank below known ones")
	}
}

func TestArgon2RejectsTamperedParams(t *testing.T) {
	c := newCodec(t, WithScheme(SchemeArgon2), WithArgon2Params(lightArgon2()))
	in := Input{Salt: "s1", Content: "hunter2"}
	record, _ := c.Encode(in)

	for _, stored := range []string{
		strings.Replace(record, "t=1", "t=2", 1),
		strings.Replace(record, "m=8192", "m=1024", 1),
		strings.Replace(record, ",l=16", "", 1),
		strings.Replace(record, "$", "", 1),
	} {
		if err := c.Verify(in, stored); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("Verify(%q): expected ErrPasswordMismatch, got %v", stored, err)
		}
	}
}

func TestArgon2ParamsFloor(t *testing.T) {
	bad := []Argon2Params{
		{Memory: 1024, Time: 1, Parallelism: 1, KeyLength: 32},
		{Memory: minMemoryKB, Time: 0, Parallelism: 1, KeyLength: 32},
		{Memory: minMemoryKB, Time: 1, Parallelism: 0, KeyLength: 32},
		{Memory: minMemoryKB, Time: 1, Parallelism: 1, KeyLength: 8},
	}
	for i, p := range bad {
		if _, err := NewCodec(testKey, WithArgon2Params(p)); !errors.Is(err, ErrInvalidArgon2Params) {
			t.Fatalf("case %d: expected ErrInvalidArgon2Params, got %v", i, err)
		}
	}
}
