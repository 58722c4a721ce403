// Package store groups the goSession.UserStore implementations:
//
//   - memory: process-local maps, for tests and single-instance demos.
//   - redisstore: Redis hashes via go-redis.
//   - postgres: PostgreSQL via pgxpool with embedded goose migrations.
//
// Every backend reports unknown subjects with goSession.ErrSubjectNotFound and
// duplicate identities with goSession.ErrAccountExists.
package store
