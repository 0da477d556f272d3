// Package otel provides OpenTelemetry metric exporter bindings for store counters
// and the matching-query latency histogram.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and an
// Int64ObservableGauge for the latency buckets, keyed by an "le" attribute.
// A single callback reads MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate store state.
package otel
