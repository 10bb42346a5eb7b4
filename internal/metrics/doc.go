// Package metrics collects request and prediction statistics for the
// classifier server.
//
// Collector runs a channel-fed event pipeline in its own goroutine and keeps:
//   - Request counts per route
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution per route
//   - Predictions per family and failures per kind
//
// Events are sent with non-blocking semantics so a slow collector never stalls
// a request. The JSON snapshot is served on /stats.
//
// Prometheus exposes the same signals as counters and histograms for /metrics.
// Both types satisfy inference.Observer and can be combined with Tee:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//	prom := metrics.NewPrometheus(prometheus.DefaultRegisterer)
//	svc, err := inference.NewService(bundle, 1024, metrics.Tee(collector, prom))
//
// On shutdown the collector drains buffered events before it stops.
package metrics
