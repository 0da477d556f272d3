// Package prometheus renders store metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] accepts any MetricsSource (usually *store.Store) and
// exposes an [http.Handler]. Counter names are prefixed optionset_*_total; the
// single histogram is optionset_match_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate store state.
package prometheus
