package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("otel: nil meter")
	ErrNilSource = errors.New("otel: nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

type counterInstrument struct {
	id  goSession.MetricID
	obs metric.Int64ObservableCounter
}

// histogramInstruments mirrors one engine histogram as a cumulative bucket
// gauge keyed by the "le" attribute plus count and sum gauges.
type histogramInstruments struct {
	id      goSession.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableGauge
}

// OTelExporter publishes engine snapshots through asynchronous instruments.
// The callback stays registered until Close.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterInstrument
	histograms   []histogramInstruments
	auditDropped metric.Int64ObservableCounter
	leSets       []metric.ObserveOption
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *goSession.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	for _, label := range internaldefs.BucketLabels {
		e.leSets = append(e.leSets, metric.WithAttributes(attribute.String("le", label)))
	}

	var observables []metric.Observable
	if err := e.createCounters(meter, &observables); err != nil {
		return nil, err
	}
	if err := e.createHistograms(meter, &observables); err != nil {
		return nil, err
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("otel: %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("otel: register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) createCounters(meter metric.Meter, observables *[]metric.Observable) error {
	for _, def := range internaldefs.CounterDefs {
		obs, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("otel: %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, obs: obs})
		*observables = append(*observables, obs)
	}
	return nil
}

func (e *OTelExporter) createHistograms(meter metric.Meter, observables *[]metric.Observable) error {
	for _, def := range internaldefs.HistogramDefs {
		h := histogramInstruments{id: def.ID}
		var err error
		if h.buckets, err = meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription("Cumulative bucket counts of "+def.Name+".")); err != nil {
			return fmt.Errorf("otel: %s_bucket: %w", def.Name, err)
		}
		if h.count, err = meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription("Sample count of "+def.Name+".")); err != nil {
			return fmt.Errorf("otel: %s_count: %w", def.Name, err)
		}
		if h.sum, err = meter.Float64ObservableGauge(def.Name+"_sum",
			metric.WithDescription("Sample sum of "+def.Name+"."), metric.WithUnit("s")); err != nil {
			return fmt.Errorf("otel: %s_sum: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, h)
		*observables = append(*observables, h.buckets, h.count, h.sum)
	}
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.obs, int64(snap.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.Cumulative(snap.Histograms[h.id])
		for i, n := range cumulative {
			o.ObserveInt64(h.buckets, int64(n), e.leSets[i])
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		o.ObserveFloat64(h.sum, snap.HistogramSums[h.id].Seconds())
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. It is safe on a nil exporter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
