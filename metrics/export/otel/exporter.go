package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/optionset/metrics"
	"github.com/MrEthical07/optionset/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is implemented by *store.Store.
type MetricsSource interface {
	MetricsSnapshot() metrics.Snapshot
}

type observedCounter struct {
	id         metrics.ID
	instrument metric.Int64ObservableCounter
}

// OTelExporter publishes store metrics through an OpenTelemetry meter.
//
// Counters become Int64ObservableCounters. The matching latency histogram is
// one cumulative bucket gauge, observed once per bound with an "le" attribute,
// plus a sample count gauge.
type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration
	counters     []observedCounter
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	bounds       []metric.ObserveOption
}

func NewOTelExporter(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		bounds:   make([]metric.ObserveOption, len(internaldefs.HistogramBounds)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+2)
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	def := internaldefs.MatchLatencyDef
	var err error
	e.latency, err = meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription(def.Help))
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Matching queries timed."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	observables = append(observables, e.latency, e.latencyCount)

	for i, le := range internaldefs.HistogramBounds {
		e.bounds[i] = metric.WithAttributes(attribute.String("le", le))
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	raw, ok := snapshot.Histograms[metrics.MatchLatency]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, opt := range e.bounds {
		observer.ObserveInt64(e.latency, int64(cumulative[i]), opt)
	}
	observer.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
