// Package otel binds goSession engine metrics to OpenTelemetry observable
// instruments.
//
// Counters map to Int64ObservableCounter. The resolve latency histogram is
// published as a cumulative bucket gauge carrying an "le" attribute, next to
// count and sum gauges. One callback reads the engine snapshot per
// collection; callers own the MeterProvider.
package otel
