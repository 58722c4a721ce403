package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	MetricResolveSuccess MetricID = iota
	MetricResolveTokenNotPresent
	MetricResolveTokenMalformed
	MetricResolveSubjectNotFound
	MetricResolveStoreFailure
	MetricResolveValidationFailed
	MetricResolveRenewalFailed
	MetricSessionRenewed
	MetricRenewalFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricCredentialUpgraded
	MetricLogoff
	MetricAccountCreated
	MetricAccountCreationFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricTokenSaltRotated
	MetricResolveLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricResolveSuccess:          "resolve_success",
	MetricResolveTokenNotPresent:  "resolve_token_not_present",
	MetricResolveTokenMalformed:   "resolve_token_malformed",
	MetricResolveSubjectNotFound:  "resolve_subject_not_found",
	MetricResolveStoreFailure:     "resolve_store_failure",
	MetricResolveValidationFailed: "resolve_validation_failed",
	MetricResolveRenewalFailed:    "resolve_renewal_failed",
	MetricSessionRenewed:          "session_renewed",
	MetricRenewalFailure:          "renewal_failure",
	MetricLoginSuccess:            "login_success",
	MetricLoginFailure:            "login_failure",
	MetricLoginRateLimited:        "login_rate_limited",
	MetricCredentialUpgraded:      "credential_upgraded",
	MetricLogoff:                  "logoff",
	MetricAccountCreated:          "account_created",
	MetricAccountCreationFailure:  "account_creation_failure",
	MetricPasswordChangeSuccess:   "password_change_success",
	MetricPasswordChangeFailure:   "password_change_failure",
	MetricTokenSaltRotated:        "token_salt_rotated",
	MetricResolveLatency:          "resolve_latency",
}

// String returns the snake_case name of id.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// latencyBounds are the inclusive upper bounds of the finite latency
// buckets. One overflow bucket follows them.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(latencyBounds) + 1

// counterSlot sits on its own cache line so hot counters do not share one.
type counterSlot struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [latencyBucketCount]atomic.Uint64
	sum     atomic.Int64
}

func (h *latencyHistogram) observe(d time.Duration) {
	h.buckets[latencyBucket(d)].Add(1)
	if d > 0 {
		h.sum.Add(int64(d))
	}
}

func (h *latencyHistogram) load() ([]uint64, time.Duration) {
	out := make([]uint64, latencyBucketCount)
	for i := range h.buckets {
		out[i] = h.buckets[i].Load()
	}
	return out, time.Duration(h.sum.Load())
}

// Metrics is a set of lock-free counters plus the resolve latency
// histogram. A nil or disabled Metrics ignores every update.
type Metrics struct {
	enabled bool
	latency bool
	slots   [metricIDCount]counterSlot
	resolve latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of the counters. Histogram slices
// hold non-cumulative bucket counts in the order of the bounds 5ms, 10ms,
// 25ms, 50ms, 100ms, 250ms, 500ms, +Inf.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool { return m != nil && m.enabled }

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool { return m != nil && m.latency }

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	m.slots[id].n.Add(1)
}

// Observe records d against MetricResolveLatency. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricResolveLatency {
		return
	}
	m.resolve.observe(d)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.slots[id].n.Load()
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id != MetricResolveLatency {
			s.Counters[id] = m.slots[id].n.Load()
		}
	}

	if m.latency {
		buckets, sum := m.resolve.load()
		s.Histograms[MetricResolveLatency] = buckets
		s.HistogramSums = map[MetricID]time.Duration{MetricResolveLatency: sum}
	}
	return s
}

func latencyBucket(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
