package ginauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/signer"
	"github.com/MrEthical07/goSession/store/memory"
	"github.com/gin-gonic/gin"
)

func newRouter(t *testing.T) (*gin.Engine, *goSession.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := goSession.DefaultConfig()
	cfg.Keys.PasswordKey = signer.Key(strings.Repeat("p", 64))
	cfg.Keys.TokenKey = signer.Key(strings.Repeat("t", 64))

	engine, err := goSession.New().WithConfig(cfg).WithUserStore(memory.New()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.CreateUser(context.Background(), goSession.CreateUserRequest{Identity: "alice", Password: "hunter2"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	r := gin.New()
	r.Use(Resolve(engine))
	r.GET("/public", func(c *gin.Context) {
		if rc, err := Subject(c); err == nil {
			c.String(http.StatusOK, rc.SubjectID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private", Require(), func(c *gin.Context) {
		rc, _ := Subject(c)
		c.JSON(http.StatusOK, gin.H{"id": rc.SubjectID})
	})
	r.POST("/login", func(c *gin.Context) {
		jar := middleware.NewCookieJar(c.Writer, c.Request, middleware.DefaultCookieOptions())
		if _, err := engine.Login(c.Request.Context(), jar, "alice", "hunter2"); err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r, engine
}

func TestGinAnonymous(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("unexpected public response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != middleware.MessageUnauthorized {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestGinLoginThenPrivate(t *testing.T) {
	r, engine := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("login failed with %d", rec.Code)
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == engine.CookieName() {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login did not set a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id"`) {
		t.Fatalf("unexpected private response %d %q", rec.Code, rec.Body.String())
	}
}

func TestGinRequireWithoutResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Require(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
