package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Generic response messages. Failure details never leave the process.
const (
	MessageUnauthorized = "not authenticated"
	MessageInternal     = "internal error"
)

// Require rejects requests that Resolve did not authenticate. A failed
// outcome yields 401; a missing outcome is a wiring error and yields 500.
func Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := SubjectFromRequest(r); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectFromRequest returns the authenticated subject attached by Resolve.
// It returns goSession.ErrOutcomeMissing when Resolve did not run, and a
// *goSession.Failure (unwrapping to goSession.ErrUnauthorized) otherwise.
func SubjectFromRequest(r *http.Request) (goSession.ResolvedContext, error) {
	return goSession.SubjectFromContext(r.Context())
}

// StatusFor maps an extractor error to the HTTP status and generic message
// sent to the client.
func StatusFor(err error) (int, string) {
	if errors.Is(err, goSession.ErrUnauthorized) {
		return http.StatusUnauthorized, MessageUnauthorized
	}
	return http.StatusInternalServerError, MessageInternal
}

// WriteError writes the generic JSON error response for err.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
