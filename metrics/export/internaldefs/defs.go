package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

const namespace = "gosession"

// Def names one exported engine metric.
type Def struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = namespace + "_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var counterHelp = []struct {
	id   goSession.MetricID
	help string
}{
	{goSession.MetricResolveSuccess, "Requests resolved to an authenticated subject."},
	{goSession.MetricResolveTokenNotPresent, "Requests without a session cookie."},
	{goSession.MetricResolveTokenMalformed, "Requests with an unparseable session token."},
	{goSession.MetricResolveSubjectNotFound, "Tokens naming an unknown subject."},
	{goSession.MetricResolveStoreFailure, "Resolutions aborted by a user store failure."},
	{goSession.MetricResolveValidationFailed, "Tokens with a bad signature or expiry."},
	{goSession.MetricResolveRenewalFailed, "Resolutions failed because mandatory renewal failed."},
	{goSession.MetricSessionRenewed, "Sessions renewed near expiry."},
	{goSession.MetricRenewalFailure, "Session renewals that could not be written."},
	{goSession.MetricLoginSuccess, "Successful logins."},
	{goSession.MetricLoginFailure, "Failed logins."},
	{goSession.MetricLoginRateLimited, "Rate-limited login attempts."},
	{goSession.MetricCredentialUpgraded, "Credential records re-encoded on login."},
	{goSession.MetricLogoff, "Logoff operations."},
	{goSession.MetricAccountCreated, "Created accounts."},
	{goSession.MetricAccountCreationFailure, "Failed account creations."},
	{goSession.MetricPasswordChangeSuccess, "Successful password changes."},
	{goSession.MetricPasswordChangeFailure, "Failed password changes."},
	{goSession.MetricTokenSaltRotated, "Token salt rotations."},
}

// CounterDefs lists every engine counter as gosession_<id>_total.
var CounterDefs = func() []Def {
	out := make([]Def, 0, len(counterHelp))
	for _, c := range counterHelp {
		out = append(out, Def{ID: c.id, Name: namespace + "_" + c.id.String() + "_total", Help: c.help})
	}
	return out
}()

// HistogramDefs lists the engine histograms. Values are in seconds.
var HistogramDefs = []Def{
	{ID: goSession.MetricResolveLatency, Name: namespace + "_resolve_latency_seconds", Help: "Resolve latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one extra +Inf bucket after them.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// BucketLabels are the "le" values of each bucket, +Inf last.
var BucketLabels = []string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// Cumulative turns per-bucket counts into running totals, one per entry of
// BucketLabels. Missing trailing buckets count as zero and extras are ignored.
func Cumulative(raw []uint64) []uint64 {
	out := make([]uint64, len(BucketLabels))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
