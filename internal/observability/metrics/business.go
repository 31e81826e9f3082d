package metrics

import (
	"database/sql"
	"time"
)

// RecordSourceRun records the end of one source run.
func RecordSourceRun(status string, created int, duration time.Duration) {
	SourceRunsTotal.WithLabelValues(status).Inc()
	if created > 0 {
		ArticlesCreatedTotal.Add(float64(created))
	}
	SourceDuration.Observe(duration.Seconds())
}

func RecordEnrichCycle(outcome string) {
	EnrichCyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordExtraction records whether the extractor produced usable content.
func RecordExtraction(ok bool) {
	result := "success"
	if !ok {
		result = "empty"
	}
	ExtractAttemptsTotal.WithLabelValues(result).Inc()
}

func RecordAICall(status string, duration time.Duration) {
	AICallsTotal.WithLabelValues(status).Inc()
	AICallDuration.Observe(duration.Seconds())
}

// RecordConfigLookup records a cache hit, miss or store error.
func RecordConfigLookup(result string) {
	ConfigCacheLookupsTotal.WithLabelValues(result).Inc()
}

// UpdateDBConnectionStats publishes the pool counters of stats.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	DBConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	DBConnections.WithLabelValues("idle").Set(float64(stats.Idle))
}
