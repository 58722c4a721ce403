package middleware

import (
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// CookieOptions are the attributes written with the session cookie.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// MaxAge sets the cookie Max-Age in seconds. Zero issues a browser-session cookie.
	MaxAge int
}

// DefaultCookieOptions returns HttpOnly, SameSite=Lax cookies scoped to "/".
// Secure is left off so the defaults also work on plain-HTTP development setups.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

type cookieJar struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

// NewCookieJar adapts one request/response pair to goSession.CookieJar.
func NewCookieJar(w http.ResponseWriter, r *http.Request, opts CookieOptions) goSession.CookieJar {
	return &cookieJar{w: w, r: r, opts: opts}
}

func (j *cookieJar) Get(name string) (string, bool) {
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *cookieJar) Set(name, value string) error {
	c := j.cookie(name, value)
	c.MaxAge = j.opts.MaxAge
	if err := c.Valid(); err != nil {
		return err
	}
	http.SetCookie(j.w, c)
	return nil
}

func (j *cookieJar) Clear(name string) {
	c := j.cookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(j.w, c)
}

func (j *cookieJar) cookie(name, value string) *http.Cookie {
	path := j.opts.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   j.opts.Domain,
		Secure:   j.opts.Secure,
		HttpOnly: j.opts.HTTPOnly,
		SameSite: j.opts.SameSite,
	}
}
