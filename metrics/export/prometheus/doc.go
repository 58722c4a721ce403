// Package prometheus exposes goSession engine metrics as a
// client_golang Collector.
//
// The exporter reads a MetricsSnapshot on every scrape; it owns no state of
// its own. Handler serves a private registry so nothing is added to the
// global default registry.
package prometheus
