package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Option customizes Resolve.
type Option func(*resolveOptions)

type resolveOptions struct {
	cookies CookieOptions
}

// WithCookieOptions sets the attributes used when the gate renews or clears
// the session cookie.
func WithCookieOptions(opts CookieOptions) Option {
	return func(o *resolveOptions) {
		o.cookies = opts
	}
}

// CookieOptionsFrom returns the cookie attributes selected by opts.
func CookieOptionsFrom(opts ...Option) CookieOptions {
	o := resolveOptions{cookies: DefaultCookieOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	return o.cookies
}

// Resolve runs Engine.Resolve for every request and attaches the outcome to
// the request context. It never rejects a request. On any failure other than
// a missing cookie it clears the session cookie.
//
// A request that already carries an outcome is passed through unchanged.
// With a nil engine nothing is attached, so Require reports a wiring error.
func Resolve(engine *goSession.Engine, opts ...Option) func(http.Handler) http.Handler {
	cookies := CookieOptionsFrom(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, ResolveRequest(engine, w, r, cookies))
		})
	}
}

// ResolveRequest performs the resolve phase for one request and returns the
// request carrying the outcome. Framework adapters share it with Resolve.
func ResolveRequest(engine *goSession.Engine, w http.ResponseWriter, r *http.Request, cookies CookieOptions) *http.Request {
	if _, ok := goSession.OutcomeFromContext(r.Context()); ok {
		return r
	}

	jar := NewCookieJar(w, r, cookies)
	outcome := engine.Resolve(r.Context(), jar)
	if outcome.Failure != nil && outcome.Failure.Kind != goSession.FailureTokenNotPresent {
		jar.Clear(engine.CookieName())
	}

	return r.WithContext(goSession.WithOutcome(r.Context(), outcome))
}
