// Package redisstore implements goSession.UserStore on Redis hashes.
//
// Each subject lives in the hash {<prefix>}:subj:<identity>; the string key
// {<prefix>}:subjid:<id> maps the subject ID back to its identity so the
// update operations can address the hash. Creation and updates run as Lua
// scripts so the hash and its index never diverge. Every key carries the
// {<prefix>} hash tag and every key a script touches is passed in KEYS, so
// the store runs unchanged against Redis Cluster.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "gs"

// ErrRedisUnavailable wraps Redis transport and protocol failures.
var ErrRedisUnavailable = errors.New("redis user store unavailable")

const (
	fieldID       = "id"
	fieldIdentity = "identity"
	fieldCred     = "cred"
	fieldPassSalt = "psalt"
	fieldTokSalt  = "tsalt"
)

// createSubjectLua inserts a subject and its ID index atomically.
// KEYS[1] = subject hash, KEYS[2] = id index
// ARGV = id, identity, psalt, tsalt, has_cred ("1"|"0"), cred
var createSubjectLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
  return {err='exists'}
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'identity', ARGV[2], 'psalt', ARGV[3], 'tsalt', ARGV[4])
if ARGV[5] == '1' then
  redis.call('HSET', KEYS[1], 'cred', ARGV[6])
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

// updateFieldLua sets one field once the ID index still names the identity
// the caller resolved.
// KEYS[1] = id index, KEYS[2] = subject hash
// ARGV = identity, field, value
var updateFieldLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
  return {err='not_found'}
end
if redis.call('EXISTS', KEYS[2]) == 0 then
  return {err='not_found'}
end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// Store is a Redis-backed UserStore.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store. An empty prefix selects DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) tag() string { return "{" + s.prefix + "}" }

func (s *Store) subjectKey(identity string) string { return s.tag() + ":subj:" + identity }

func (s *Store) idKey(id string) string { return s.tag() + ":subjid:" + id }

func (s *Store) FindByIdentity(ctx context.Context, identity string) (goSession.Subject, error) {
	fields, err := s.redis.HGetAll(ctx, s.subjectKey(identity)).Result()
	if err != nil {
		return goSession.Subject{}, s.wrap(ctx, err)
	}
	if len(fields) == 0 {
		return goSession.Subject{}, goSession.ErrSubjectNotFound
	}

	sub := goSession.Subject{
		ID:           fields[fieldID],
		Identity:     fields[fieldIdentity],
		PasswordSalt: fields[fieldPassSalt],
		TokenSalt:    fields[fieldTokSalt],
	}
	if cred, ok := fields[fieldCred]; ok {
		sub.CredentialRecord = &cred
	}
	return sub, nil
}

func (s *Store) CreateSubject(ctx context.Context, subject goSession.Subject) error {
	hasCred, cred := "0", ""
	if subject.CredentialRecord != nil {
		hasCred, cred = "1", *subject.CredentialRecord
	}

	err := createSubjectLua.Run(ctx, s.redis,
		[]string{s.subjectKey(subject.Identity), s.idKey(subject.ID)},
		subject.ID,
		subject.Identity,
		subject.PasswordSalt,
		subject.TokenSalt,
		hasCred,
		cred,
	).Err()
	if err != nil {
		if err.Error() == "exists" {
			return goSession.ErrAccountExists
		}
		return s.wrap(ctx, err)
	}
	return nil
}

func (s *Store) UpdateCredential(ctx context.Context, subjectID, record string) error {
	return s.updateField(ctx, subjectID, fieldCred, record)
}

func (s *Store) UpdateTokenSalt(ctx context.Context, subjectID, salt string) error {
	return s.updateField(ctx, subjectID, fieldTokSalt, salt)
}

func (s *Store) updateField(ctx context.Context, subjectID, field, value string) error {
	identity, err := s.redis.Get(ctx, s.idKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goSession.ErrSubjectNotFound
		}
		return s.wrap(ctx, err)
	}

	err = updateFieldLua.Run(ctx, s.redis,
		[]string{s.idKey(subjectID), s.subjectKey(identity)},
		identity,
		field,
		value,
	).Err()
	if err != nil {
		if err.Error() == "not_found" {
			return goSession.ErrSubjectNotFound
		}
		return s.wrap(ctx, err)
	}
	return nil
}

func (s *Store) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
