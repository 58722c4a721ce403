// Package ginauth adapts the session gate to gin. It has the same semantics
// as the net/http middleware: Resolve never rejects, Require turns failures
// into a generic 401, and Subject extracts the authenticated subject.
package ginauth

import (
	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/gin-gonic/gin"
)

// Resolve runs the resolve phase for every request.
func Resolve(engine *goSession.Engine, opts ...middleware.Option) gin.HandlerFunc {
	cookies := middleware.CookieOptionsFrom(opts...)

	return func(c *gin.Context) {
		if engine != nil {
			c.Request = middleware.ResolveRequest(engine, c.Writer, c.Request, cookies)
		}
		c.Next()
	}
}

// Require aborts requests without an authenticated subject.
func Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := Subject(c); err != nil {
			status, msg := middleware.StatusFor(err)
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// Subject returns the authenticated subject attached by Resolve.
func Subject(c *gin.Context) (goSession.ResolvedContext, error) {
	return goSession.SubjectFromContext(c.Request.Context())
}
