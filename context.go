package goSession

import "context"

type clientIPContextKey struct{}
type outcomeContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP login throttling and audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithOutcome attaches a resolution outcome to ctx. Middleware calls it once
// per request; later stages read it with OutcomeFromContext.
func WithOutcome(ctx context.Context, outcome Outcome) context.Context {
	return context.WithValue(ctx, outcomeContextKey{}, outcome)
}

// OutcomeFromContext returns the outcome attached by WithOutcome.
func OutcomeFromContext(ctx context.Context) (Outcome, bool) {
	if ctx == nil {
		return Outcome{}, false
	}
	outcome, ok := ctx.Value(outcomeContextKey{}).(Outcome)
	return outcome, ok
}

// SubjectFromContext is the capability extractor for handlers: it returns the
// resolved context, [ErrOutcomeMissing] when resolution never ran, or the
// [*Failure] (which unwraps to [ErrUnauthorized]).
func SubjectFromContext(ctx context.Context) (ResolvedContext, error) {
	outcome, ok := OutcomeFromContext(ctx)
	if !ok {
		return ResolvedContext{}, ErrOutcomeMissing
	}
	return outcome.Subject()
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
