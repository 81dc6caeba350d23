// Package metrics measures crawl runs.
//
// Collector times a single run and turns the crawler's page count into the
// RunRecord emitted on stdout. Instruments exposes live Prometheus series
// for a crawl in progress (pages, failures, fetch latency, frontier size,
// in-flight work and pool occupancy) on a private registry.
package metrics
