package goSession

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/signer"
	"github.com/MrEthical07/goSession/token"
	"go.uber.org/zap"
)

// Engine resolves session cookies and runs the account flows. It is immutable
// after [Builder.Build] and safe for concurrent use.
type Engine struct {
	config      Config
	store       UserStore
	tokenSigner *signer.Signer
	codec       *password.Codec
	rateLimiter *rate.Limiter
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// Close stops the audit dispatcher after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// CookieName returns the configured session cookie name.
func (e *Engine) CookieName() string {
	if e == nil {
		return DefaultCookieName
	}
	return e.config.Token.CookieName
}

// TokenDuration returns the lifetime of issued tokens.
func (e *Engine) TokenDuration() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Token.Duration
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// issue writes a fresh token for subject into jar and returns its wire form.
func (e *Engine) issue(jar CookieJar, subject Subject, now time.Time) (string, error) {
	raw := token.Generate(e.tokenSigner, subject.Identity, subject.TokenSalt, e.config.Token.Duration, now).String()
	if err := jar.Set(e.config.Token.CookieName, raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (e *Engine) ready(ctx context.Context) error {
	if e == nil || e.store == nil || e.tokenSigner == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	return ctx.Err()
}
