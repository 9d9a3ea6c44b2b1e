// Package metrics holds the Prometheus collectors for storage transfers.
//
// Collectors are registered on the default registry at init time through
// promauto; the HTTP server exposes them on /metrics.
package metrics
