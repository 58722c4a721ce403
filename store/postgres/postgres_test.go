package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !isDuplicateKey(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("expected wrapped 23505 to be a duplicate key")
	}
	if isDuplicateKey(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a duplicate key")
	}
	if isDuplicateKey(errors.New("23505")) {
		t.Fatal("plain error text must not match")
	}
	if isDuplicateKey(nil) {
		t.Fatal("nil is not a duplicate key")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()
	if cfg.MaxConns != 10 || cfg.MaxConnLifetime == 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	cfg = Config{MaxConns: 3}
	cfg.defaults()
	if cfg.MaxConns != 3 {
		t.Fatalf("explicit MaxConns overwritten: %d", cfg.MaxConns)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
}
