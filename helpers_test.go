package goSession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/signer"
)

var (
	testPasswordKey = signer.Key(strings.Repeat("P", 64))
	testTokenKey    = signer.Key(strings.Repeat("T", 64))
	testNow         = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
)

type fakeStore struct {
	mu         sync.Mutex
	byIdentity map[string]Subject
	findErr    error
	writeErr   error
	finds      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byIdentity: map[string]Subject{}}
}

func (s *fakeStore) FindByIdentity(ctx context.Context, identity string) (Subject, error) {
	if err := ctx.Err(); err != nil {
		return Subject{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return Subject{}, s.findErr
	}
	subject, ok := s.byIdentity[identity]
	if !ok {
		return Subject{}, ErrSubjectNotFound
	}
	return subject, nil
}

func (s *fakeStore) CreateSubject(_ context.Context, subject Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.byIdentity[subject.Identity]; ok {
		return ErrAccountExists
	}
	s.byIdentity[subject.Identity] = subject
	return nil
}

func (s *fakeStore) UpdateCredential(_ context.Context, subjectID, record string) error {
	return s.update(subjectID, func(sub *Subject) { sub.CredentialRecord = &record })
}

func (s *fakeStore) UpdateTokenSalt(_ context.Context, subjectID, salt string) error {
	return s.update(subjectID, func(sub *Subject) { sub.TokenSalt = salt })
}

func (s *fakeStore) update(subjectID string, apply func(*Subject)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for identity, sub := range s.byIdentity {
		if sub.ID == subjectID {
			apply(&sub)
			s.byIdentity[identity] = sub
			return nil
		}
	}
	return ErrSubjectNotFound
}

func (s *fakeStore) put(sub Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIdentity[sub.Identity] = sub
}

func (s *fakeStore) get(identity string) Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byIdentity[identity]
}

type fakeJar struct {
	values  map[string]string
	sets    int
	clears  int
	setErr  error
	cleared []string
}

func newFakeJar() *fakeJar {
	return &fakeJar{values: map[string]string{}}
}

func (j *fakeJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *fakeJar) Set(name, value string) error {
	if j.setErr != nil {
		return j.setErr
	}
	j.sets++
	j.values[name] = value
	return nil
}

func (j *fakeJar) Clear(name string) {
	j.clears++
	j.cleared = append(j.cleared, name)
	delete(j.values, name)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Keys.PasswordKey = testPasswordKey
	cfg.Keys.TokenKey = testTokenKey
	return cfg
}

type engineFixture struct {
	engine *Engine
	store  *fakeStore
	clock  *clock
}

func newFixture(t testing.TB, mutate func(*Config), configure ...func(*Builder)) engineFixture {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := newFakeStore()
	clk := &clock{now: testNow}

	b := New().WithConfig(cfg).WithUserStore(store).WithClock(clk.Now)
	for _, fn := range configure {
		fn(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engineFixture{engine: engine, store: store, clock: clk}
}

// seed stores alice with password hunter2, encoded with the engine's codec.
func (f engineFixture) seed(t testing.TB, identity, plaintext string) Subject {
	t.Helper()
	codec, err := password.NewCodec(testPasswordKey)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	sub := Subject{
		ID:           "id-" + identity,
		Identity:     identity,
		PasswordSalt: "pwd-salt-" + identity,
		TokenSalt:    "s1",
	}
	record, err := codec.Encode(password.Input{Salt: sub.PasswordSalt, Content: plaintext})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sub.CredentialRecord = &record
	f.store.put(sub)
	return sub
}

// login returns a jar holding a freshly issued cookie for identity.
func (f engineFixture) login(t *testing.T, identity, plaintext string) *fakeJar {
	t.Helper()
	jar := newFakeJar()
	if _, err := f.engine.Login(context.Background(), jar, identity, plaintext); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return jar
}

var errBoom = errors.New("boom")
