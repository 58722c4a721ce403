// Package postgres implements goSession.UserStore on PostgreSQL using a
// pgx connection pool. The schema ships as embedded goose migrations.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// Config configures the pool and start-up behavior.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrateOnStart  bool
}

func (c *Config) defaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = time.Hour
	}
}

// Store is a PostgreSQL-backed UserStore.
type Store struct {
	pool *pgxpool.Pool
}

// New connects, pings, and optionally migrates the database.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}
	if cfg.MigrateOnStart {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return s, nil
}

// Migrate applies every pending embedded migration.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) FindByIdentity(ctx context.Context, identity string) (goSession.Subject, error) {
	var sub goSession.Subject
	err := s.pool.QueryRow(ctx, `
		SELECT id, identity, credential_record, password_salt, token_salt
		FROM subjects
		WHERE identity = $1
	`, identity).Scan(&sub.ID, &sub.Identity, &sub.CredentialRecord, &sub.PasswordSalt, &sub.TokenSalt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return goSession.Subject{}, goSession.ErrSubjectNotFound
		}
		return goSession.Subject{}, fmt.Errorf("querying subject: %w", err)
	}
	return sub, nil
}

func (s *Store) CreateSubject(ctx context.Context, subject goSession.Subject) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subjects (id, identity, credential_record, password_salt, token_salt)
		VALUES ($1, $2, $3, $4, $5)
	`, subject.ID, subject.Identity, subject.CredentialRecord, subject.PasswordSalt, subject.TokenSalt)
	if err != nil {
		if isDuplicateKey(err) {
			return goSession.ErrAccountExists
		}
		return fmt.Errorf("inserting subject: %w", err)
	}
	return nil
}

func (s *Store) UpdateCredential(ctx context.Context, subjectID, record string) error {
	return s.exec(ctx, `
		UPDATE subjects SET credential_record = $2, updated_at = now() WHERE id = $1
	`, subjectID, record)
}

func (s *Store) UpdateTokenSalt(ctx context.Context, subjectID, salt string) error {
	return s.exec(ctx, `
		UPDATE subjects SET token_salt = $2, updated_at = now() WHERE id = $1
	`, subjectID, salt)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return goSession.ErrSubjectNotFound
	}
	return nil
}

// isDuplicateKey reports a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
