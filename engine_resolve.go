package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/token"
	"go.uber.org/zap"
)

var errTokenExpired = errors.New("token: expired")

// Resolve derives the authenticated subject of a request from its session
// cookie. It never rejects: every failure is reported in the returned Outcome.
//
// A valid token whose remaining lifetime is below Config.Token.RenewThreshold
// is re-issued through jar. Cookies are written only after the token has been
// fully validated; a cancelled ctx aborts the store lookup before anything is
// written.
func (e *Engine) Resolve(ctx context.Context, jar CookieJar) Outcome {
	if e == nil || e.store == nil || e.tokenSigner == nil {
		return failed(FailureStoreAccess, ErrEngineNotReady.Error())
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricResolveLatency, time.Since(start))
		}()
	}

	outcome := e.resolve(ctx, jar)
	e.recordOutcome(ctx, outcome)
	return outcome
}

func (e *Engine) resolve(ctx context.Context, jar CookieJar) Outcome {
	if jar == nil {
		return failed(FailureTokenNotPresent, "")
	}

	// A present but empty cookie is malformed, not absent.
	raw, ok := jar.Get(e.config.Token.CookieName)
	if !ok {
		return failed(FailureTokenNotPresent, "")
	}

	tok, err := token.Parse(raw)
	if err != nil {
		return failed(FailureTokenMalformed, err.Error())
	}

	if err := ctx.Err(); err != nil {
		return failed(FailureStoreAccess, err.Error())
	}
	subject, err := e.store.FindByIdentity(ctx, tok.Identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return failed(FailureSubjectNotFound, "")
		}
		return failed(FailureStoreAccess, err.Error())
	}

	if err := tok.ValidateSignature(e.tokenSigner, subject.TokenSalt); err != nil {
		return failed(FailureValidation, err.Error())
	}

	expiresAt, err := tok.ExpiresAt()
	if err != nil {
		return failed(FailureValidation, err.Error())
	}

	now := e.now()
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return failed(FailureValidation, errTokenExpired.Error())
	}

	if remaining < e.config.Token.RenewThreshold {
		if _, err := e.issue(jar, subject, now); err != nil {
			e.metricInc(MetricRenewalFailure)
			e.emitAudit(ctx, auditEventRenewalFailure, false, subject.ID, err, nil)
			if e.config.Token.RenewalMandatory {
				return failed(FailureRenewal, err.Error())
			}
			e.logger.Warn("session renewal failed, continuing with current token",
				zap.String("subject_id", subject.ID),
				zap.Duration("remaining", remaining),
				zap.Error(err),
			)
		} else {
			e.metricInc(MetricSessionRenewed)
			e.emitAudit(ctx, auditEventSessionRenewed, true, subject.ID, nil, nil)
		}
	}

	return resolved(subject.ID)
}

func (e *Engine) recordOutcome(ctx context.Context, outcome Outcome) {
	if outcome.Failure == nil {
		e.metricInc(MetricResolveSuccess)
		return
	}

	f := outcome.Failure
	e.metricInc(resolveFailureMetric(f.Kind))

	// Anonymous requests are the common case and carry no signal.
	if f.Kind == FailureTokenNotPresent {
		return
	}

	fields := []zap.Field{
		zap.Stringer("failure_kind", f.Kind),
		zap.String("category", string(f.Kind.Category())),
		zap.String("detail", f.Detail),
	}
	if f.Kind == FailureStoreAccess {
		e.logger.Error("session resolution failed", fields...)
	} else {
		e.logger.Debug("session resolution failed", fields...)
	}

	e.emitAudit(ctx, auditEventResolveFailure, false, "", f, func() map[string]string {
		return map[string]string{
			"failure_kind": f.Kind.String(),
			"category":     string(f.Kind.Category()),
		}
	})
}

func resolveFailureMetric(kind FailureKind) MetricID {
	switch kind {
	case FailureTokenNotPresent:
		return MetricResolveTokenNotPresent
	case FailureTokenMalformed:
		return MetricResolveTokenMalformed
	case FailureSubjectNotFound:
		return MetricResolveSubjectNotFound
	case FailureStoreAccess:
		return MetricResolveStoreFailure
	case FailureValidation:
		return MetricResolveValidationFailed
	default:
		return MetricResolveRenewalFailed
	}
}
