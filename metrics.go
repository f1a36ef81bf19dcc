package ticketAuth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that issued a ticket.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected with ErrInvalidCredentials.
	MetricLoginFailure
	// MetricLoginInfrastructure counts logins that failed on Redis or the
	// user repository.
	MetricLoginInfrastructure
	// MetricLoginThrottled counts logins rejected by the failed-attempt throttle.
	MetricLoginThrottled
	// MetricTicketIssued counts tickets written to the store.
	MetricTicketIssued
	// MetricResolveHit counts requests resolved to an identity.
	MetricResolveHit
	// MetricResolveMiss counts tickets that were expired or never issued.
	MetricResolveMiss
	// MetricResolveAnonymous counts requests without a ticket cookie.
	MetricResolveAnonymous
	// MetricResolveError counts resolutions degraded to anonymous by a store
	// failure or corrupt snapshot.
	MetricResolveError
	// MetricUserProvisioned counts users created through ProvisionUser.
	MetricUserProvisioned
	// MetricProvisionRejected counts ProvisionUser calls that failed.
	MetricProvisionRejected
	// MetricLoginLatency is the login latency histogram.
	MetricLoginLatency
	// MetricResolveLatency is the resolve latency histogram.
	MetricResolveLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:        "login_success",
	MetricLoginFailure:        "login_failure",
	MetricLoginInfrastructure: "login_infrastructure_error",
	MetricLoginThrottled:      "login_throttled",
	MetricTicketIssued:        "ticket_issued",
	MetricResolveHit:          "resolve_hit",
	MetricResolveMiss:         "resolve_miss",
	MetricResolveAnonymous:    "resolve_anonymous",
	MetricResolveError:        "resolve_error",
	MetricUserProvisioned:     "user_provisioned",
	MetricProvisionRejected:   "provision_rejected",
	MetricLoginLatency:        "login_latency",
	MetricResolveLatency:      "resolve_latency",
}

// String returns the snake_case name used by metric exporters.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// IsHistogram reports whether id names a latency histogram.
func (id MetricID) IsHistogram() bool {
	return id == MetricLoginLatency || id == MetricResolveLatency
}

// HistogramBounds are the inclusive upper bounds of the first seven latency
// buckets. The eighth bucket is unbounded.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. A nil *Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount || id.IsHistogram() {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || !id.IsHistogram() {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and every histogram when latency is enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id.IsHistogram() {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricLoginLatency, MetricResolveLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
