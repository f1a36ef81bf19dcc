// Package prometheus exports ticketAuth engine metrics through
// prometheus/client_golang.
//
// [Collector] implements prometheus.Collector over
// [ticketAuth.Engine.MetricsSnapshot]. Counters are named ticketauth_*_total
// and the latency histograms ticketauth_login_latency_seconds and
// ticketauth_resolve_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with the global Prometheus registry. Callers register the
//     Collector or mount [Collector.Handler].
//   - Mutate engine state.
package prometheus
