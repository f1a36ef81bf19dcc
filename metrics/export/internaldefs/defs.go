package internaldefs

import (
	"strconv"
	"strings"

	ticketAuth "github.com/MrEthical07/ticketAuth"
)

// BucketCount is the number of latency buckets, including the unbounded one.
const BucketCount = len(ticketAuth.HistogramBounds) + 1

// Audit drop counter, exported next to the engine counters.
const (
	AuditDroppedName = "ticketauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   ticketAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   ticketAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: ticketAuth.MetricLoginSuccess, Name: "ticketauth_login_success_total", Help: "Logins that issued a ticket."},
	{ID: ticketAuth.MetricLoginFailure, Name: "ticketauth_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: ticketAuth.MetricLoginInfrastructure, Name: "ticketauth_login_infrastructure_error_total", Help: "Logins failed by the ticket store or user repository."},
	{ID: ticketAuth.MetricLoginThrottled, Name: "ticketauth_login_throttled_total", Help: "Logins rejected by the failed-attempt throttle."},
	{ID: ticketAuth.MetricTicketIssued, Name: "ticketauth_ticket_issued_total", Help: "Tickets written to the ticket store."},
	{ID: ticketAuth.MetricResolveHit, Name: "ticketauth_resolve_hit_total", Help: "Requests resolved to an identity."},
	{ID: ticketAuth.MetricResolveMiss, Name: "ticketauth_resolve_miss_total", Help: "Tickets that were expired or never issued."},
	{ID: ticketAuth.MetricResolveAnonymous, Name: "ticketauth_resolve_anonymous_total", Help: "Requests without a ticket cookie."},
	{ID: ticketAuth.MetricResolveError, Name: "ticketauth_resolve_error_total", Help: "Resolutions degraded to anonymous by a store failure or corrupt entry."},
	{ID: ticketAuth.MetricUserProvisioned, Name: "ticketauth_user_provisioned_total", Help: "Users created through provisioning."},
	{ID: ticketAuth.MetricProvisionRejected, Name: "ticketauth_provision_rejected_total", Help: "Provisioning requests that failed."},
}

// HistogramDefs lists the engine latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: ticketAuth.MetricLoginLatency, Name: "ticketauth_login_latency_seconds", Help: "Login latency."},
	{ID: ticketAuth.MetricResolveLatency, Name: "ticketauth_resolve_latency_seconds", Help: "Ticket resolution latency."},
}

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(ticketAuth.HistogramBounds))
	for i, d := range ticketAuth.HistogramBounds {
		out[i] = d.Seconds()
	}
	return out
}

// BoundSuffixes returns instrument-name suffixes for each bucket, "0_005" for
// 5ms through "inf" for the unbounded bucket.
func BoundSuffixes() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range UpperBounds() {
		s := strconv.FormatFloat(b, 'f', -1, 64)
		out = append(out, strings.ReplaceAll(s, ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets copies raw into a fixed-size array. Missing buckets read as
// zero and extra buckets are ignored.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals. The last
// element is the sample count.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
