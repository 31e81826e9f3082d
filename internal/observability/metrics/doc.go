// Package metrics holds the Prometheus collectors of the collect and enrich
// pipelines. They register on the default registry and are served by the
// worker's /metrics endpoint.
//
//	start := time.Now()
//	// ... run one source ...
//	metrics.RecordSourceRun("success", created, time.Since(start))
package metrics
