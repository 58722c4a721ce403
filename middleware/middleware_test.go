package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/signer"
)

type memStore struct {
	mu   sync.Mutex
	subs map[string]goSession.Subject
}

func (s *memStore) FindByIdentity(_ context.Context, identity string) (goSession.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[identity]
	if !ok {
		return goSession.Subject{}, goSession.ErrSubjectNotFound
	}
	return sub, nil
}

func (s *memStore) CreateSubject(_ context.Context, sub goSession.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.Identity]; ok {
		return goSession.ErrAccountExists
	}
	s.subs[sub.Identity] = sub
	return nil
}

func (s *memStore) UpdateCredential(context.Context, string, string) error { return nil }
func (s *memStore) UpdateTokenSalt(context.Context, string, string) error  { return nil }

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newEngine(t *testing.T) (*goSession.Engine, *testClock) {
	t.Helper()
	cfg := goSession.DefaultConfig()
	cfg.Keys.PasswordKey = signer.Key(strings.Repeat("p", 64))
	cfg.Keys.TokenKey = signer.Key(strings.Repeat("t", 64))

	clk := &testClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	engine, err := goSession.New().
		WithConfig(cfg).
		WithUserStore(&memStore{subs: map[string]goSession.Subject{}}).
		WithClock(clk.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.CreateUser(context.Background(), goSession.CreateUserRequest{Identity: "alice", Password: "hunter2"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return engine, clk
}

// loginCookie performs a login through the HTTP jar and returns the issued cookie.
func loginCookie(t *testing.T, engine *goSession.Engine) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if _, err := engine.Login(req.Context(), NewCookieJar(rec, req, DefaultCookieOptions()), "alice", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == engine.CookieName() {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, err := SubjectFromRequest(r)
		if err != nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(rc.SubjectID))
	})
}

func TestResolveAnonymousPassesThrough(t *testing.T) {
	engine, _ := newEngine(t)
	h := Resolve(engine)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("anonymous request must not touch cookies")
	}
}

func TestResolveAttachesSubject(t *testing.T) {
	engine, _ := newEngine(t)
	cookie := loginCookie(t, engine)
	h := Resolve(engine)(Require()(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() == "anonymous" || rec.Body.String() == "" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestResolveClearsBadCookie(t *testing.T) {
	engine, _ := newEngine(t)
	h := Resolve(engine)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: engine.CookieName(), Value: "not.a.token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("resolve must not reject: %d %q", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != engine.CookieName() || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected the session cookie to be cleared, got %+v", cookies)
	}
}

func TestResolveRenewsNearExpiry(t *testing.T) {
	engine, clk := newEngine(t)
	cookie := loginCookie(t, engine)
	clk.now = clk.now.Add(engine.TokenDuration() - 10*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	Resolve(engine)(okHandler()).ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == cookie.Value || cookies[0].Value == "" {
		t.Fatalf("expected a renewed cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].Path != "/" {
		t.Fatalf("renewed cookie lost its attributes: %+v", cookies[0])
	}
}

func TestRequireRejectsAnonymous(t *testing.T) {
	engine, _ := newEngine(t)
	h := Resolve(engine)(Require()(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != MessageUnauthorized {
		t.Fatalf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}

func TestRequireWithoutResolveIsWiringError(t *testing.T) {
	rec := httptest.NewRecorder()
	Require()(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "outcome") {
		t.Fatalf("internal detail leaked: %q", rec.Body.String())
	}
}

func TestRequireHidesFailureDetail(t *testing.T) {
	engine, _ := newEngine(t)
	h := Resolve(engine)(Require()(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: engine.CookieName(), Value: "YWxpY2U.eA.sig"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "signature") || strings.Contains(rec.Body.String(), "RFC") {
		t.Fatalf("failure detail leaked: %q", rec.Body.String())
	}
}

func TestResolveRunsOnce(t *testing.T) {
	engine, _ := newEngine(t)
	h := Resolve(engine)(Resolve(engine)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: engine.CookieName(), Value: "bad"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if n := len(rec.Result().Cookies()); n != 1 {
		t.Fatalf("expected a single clear from one resolution, got %d cookies", n)
	}
	if got := engine.MetricsSnapshot().Counters[goSession.MetricResolveTokenMalformed]; got != 1 {
		t.Fatalf("expected one resolution, got %d", got)
	}
}

func TestSubjectFromRequestErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := SubjectFromRequest(req); !errors.Is(err, goSession.ErrOutcomeMissing) {
		t.Fatalf("expected ErrOutcomeMissing, got %v", err)
	}
}

func TestCookieJarSetRejectsInvalidValue(t *testing.T) {
	rec := httptest.NewRecorder()
	jar := NewCookieJar(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultCookieOptions())
	if err := jar.Set("auth-token", "bad;value"); err == nil {
		t.Fatal("expected invalid cookie value to be rejected")
	}
}
