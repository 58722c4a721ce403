// Package memory implements goSession.UserStore with process-local maps.
package memory

import (
	"context"
	"sync"

	goSession "github.com/MrEthical07/goSession"
)

// Store is a concurrency-safe in-memory UserStore.
type Store struct {
	mu         sync.RWMutex
	byIdentity map[string]goSession.Subject
	identityOf map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byIdentity: make(map[string]goSession.Subject),
		identityOf: make(map[string]string),
	}
}

func (s *Store) FindByIdentity(ctx context.Context, identity string) (goSession.Subject, error) {
	if err := ctx.Err(); err != nil {
		return goSession.Subject{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byIdentity[identity]
	if !ok {
		return goSession.Subject{}, goSession.ErrSubjectNotFound
	}
	return copySubject(sub), nil
}

func (s *Store) CreateSubject(ctx context.Context, subject goSession.Subject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIdentity[subject.Identity]; ok {
		return goSession.ErrAccountExists
	}
	if _, ok := s.identityOf[subject.ID]; ok {
		return goSession.ErrAccountExists
	}
	s.byIdentity[subject.Identity] = copySubject(subject)
	s.identityOf[subject.ID] = subject.Identity
	return nil
}

func (s *Store) UpdateCredential(ctx context.Context, subjectID, record string) error {
	return s.update(ctx, subjectID, func(sub *goSession.Subject) {
		sub.CredentialRecord = &record
	})
}

func (s *Store) UpdateTokenSalt(ctx context.Context, subjectID, salt string) error {
	return s.update(ctx, subjectID, func(sub *goSession.Subject) {
		sub.TokenSalt = salt
	})
}

func (s *Store) update(ctx context.Context, subjectID string, apply func(*goSession.Subject)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identityOf[subjectID]
	if !ok {
		return goSession.ErrSubjectNotFound
	}
	sub := s.byIdentity[identity]
	apply(&sub)
	s.byIdentity[identity] = sub
	return nil
}

func copySubject(sub goSession.Subject) goSession.Subject {
	if sub.CredentialRecord != nil {
		record := *sub.CredentialRecord
		sub.CredentialRecord = &record
	}
	return sub
}
