//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("gosession_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{DSN: dsn, MaxConns: 4, MinConns: 1, MigrateOnStart: true})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStoreLifecycle(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if _, err := s.FindByIdentity(ctx, "alice"); !errors.Is(err, goSession.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}

	sub := goSession.Subject{ID: "u1", Identity: "alice", PasswordSalt: "ps", TokenSalt: "ts"}
	if err := s.CreateSubject(ctx, sub); err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if err := s.CreateSubject(ctx, sub); !errors.Is(err, goSession.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	got, err := s.FindByIdentity(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByIdentity: %v", err)
	}
	if got.CredentialRecord != nil {
		t.Fatalf("expected NULL credential, got %q", *got.CredentialRecord)
	}

	if err := s.UpdateCredential(ctx, "u1", "#01#sig"); err != nil {
		t.Fatalf("UpdateCredential: %v", err)
	}
	if err := s.UpdateTokenSalt(ctx, "u1", "ts2"); err != nil {
		t.Fatalf("UpdateTokenSalt: %v", err)
	}
	got, _ = s.FindByIdentity(ctx, "alice")
	if got.CredentialRecord == nil || *got.CredentialRecord != "#01#sig" || got.TokenSalt != "ts2" {
		t.Fatalf("updates not applied: %+v", got)
	}

	if err := s.UpdateTokenSalt(ctx, "ghost", "x"); !errors.Is(err, goSession.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}

	// Migrations are idempotent.
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
