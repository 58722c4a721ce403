package memory

import (
	"context"
	"errors"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

func record(s string) *string { return &s }

func TestCreateFindUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	sub := goSession.Subject{ID: "u1", Identity: "alice", CredentialRecord: record("#01#abc"), PasswordSalt: "p", TokenSalt: "t"}
	if err := s.CreateSubject(ctx, sub); err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if err := s.CreateSubject(ctx, sub); !errors.Is(err, goSession.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	got, err := s.FindByIdentity(ctx, "alice")
	if err != nil || got.ID != "u1" || *got.CredentialRecord != "#01#abc" {
		t.Fatalf("unexpected subject %+v (%v)", got, err)
	}

	*got.CredentialRecord = "mutated"
	again, _ := s.FindByIdentity(ctx, "alice")
	if *again.CredentialRecord != "#01#abc" {
		t.Fatal("caller mutation leaked into the store")
	}

	if err := s.UpdateCredential(ctx, "u1", "#02#new"); err != nil {
		t.Fatalf("UpdateCredential: %v", err)
	}
	if err := s.UpdateTokenSalt(ctx, "u1", "t2"); err != nil {
		t.Fatalf("UpdateTokenSalt: %v", err)
	}
	got, _ = s.FindByIdentity(ctx, "alice")
	if *got.CredentialRecord != "#02#new" || got.TokenSalt != "t2" {
		t.Fatalf("updates not applied: %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.FindByIdentity(ctx, "ghost"); !errors.Is(err, goSession.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
	if err := s.UpdateTokenSalt(ctx, "ghost", "x"); !errors.Is(err, goSession.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.FindByIdentity(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
