package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// Server wires an Engine to HTTP routes.
type Server struct {
	engine  *goSession.Engine
	logger  *zap.Logger
	cookies middleware.CookieOptions
	metrics http.Handler
}

// New returns a Server. A nil metrics handler leaves /metrics unrouted.
func New(engine *goSession.Engine, logger *zap.Logger, cookies middleware.CookieOptions, metrics http.Handler) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		logger:  logger.Named("http"),
		cookies: cookies,
		metrics: metrics,
	}
}

// Handler returns the routed handler. Every route passes through the resolve
// phase; whoami and change_password also require an authenticated session.
func (s *Server) Handler() http.Handler {
	require := middleware.Require()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("POST /api/logoff", s.logoff)
	mux.HandleFunc("POST /api/create_user", s.createUser)
	mux.Handle("POST /api/change_password", require(http.HandlerFunc(s.changePassword)))
	mux.Handle("GET /api/whoami", require(http.HandlerFunc(s.whoami)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	resolve := middleware.Resolve(s.engine, middleware.WithCookieOptions(s.cookies))
	return withClientIP(resolve(mux))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Pwd      string `json:"pwd"`
}

type loginResult struct {
	Success  bool   `json:"success"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	jar := middleware.NewCookieJar(w, r, s.cookies)
	res, err := s.engine.Login(r.Context(), jar, req.Username, req.Pwd)
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": loginResult{Success: true, ID: res.SubjectID, Username: res.Identity, Token: res.Token},
	})
}

func (s *Server) logoff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Logoff bool `json:"logoff"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Logoff {
		s.engine.Logoff(r.Context(), middleware.NewCookieJar(w, r, s.cookies))
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]bool{"logged_off": req.Logoff}})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	sub, err := s.engine.CreateUser(r.Context(), goSession.CreateUserRequest{Identity: req.Username, Password: req.Pwd})
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"result": map[string]string{"id": sub.ID, "username": sub.Identity},
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		OldPwd   string `json:"old_pwd"`
		NewPwd   string `json:"new_pwd"`
	}
	if !decode(w, r, &req) {
		return
	}
	rc, err := middleware.SubjectFromRequest(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := s.engine.ChangePassword(r.Context(), rc.SubjectID, req.Username, req.OldPwd, req.NewPwd); err != nil {
		s.writeAccountError(w, err)
		return
	}
	// The token salt rotated, so the caller's cookie is dead too.
	middleware.NewCookieJar(w, r, s.cookies).Clear(s.engine.CookieName())
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]bool{"success": true}})
}

func (s *Server) whoami(w http.ResponseWriter, r *http.Request) {
	rc, err := middleware.SubjectFromRequest(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]string{"id": rc.SubjectID}})
}

// writeAccountError maps account-flow errors to responses. Credential and
// identity failures share one body.
func (s *Server) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goSession.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
	case errors.Is(err, goSession.ErrLoginRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody("too many attempts"))
	case errors.Is(err, goSession.ErrSubjectMismatch):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, goSession.ErrAccountExists):
		writeJSON(w, http.StatusConflict, errorBody("account already exists"))
	case errors.Is(err, goSession.ErrInvalidIdentity), errors.Is(err, goSession.ErrEmptyPassword):
		writeJSON(w, http.StatusBadRequest, errorBody("username and pwd are required"))
	default:
		s.logger.Error("account operation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody(middleware.MessageInternal))
	}
}

func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(goSession.WithClientIP(r.Context(), host)))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad request"))
		return false
	}
	return true
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
