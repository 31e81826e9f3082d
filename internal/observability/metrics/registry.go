package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collect pipeline
var (
	// SourceRunsTotal counts source runs by FetchLog status (success, partial, error).
	SourceRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collect_source_runs_total",
			Help: "Total number of source runs by final status",
		},
		[]string{"status"},
	)

	ArticlesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collect_articles_created_total",
			Help: "Total number of new articles persisted by collect runs",
		},
	)

	SourceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collect_source_duration_seconds",
			Help:    "Duration of one source run from fetch to FetchLog",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

// Enrich pipeline
var (
	// EnrichCyclesTotal counts cycles by outcome (idle, extract_failed, enriched, skipped, error).
	EnrichCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_cycles_total",
			Help: "Total number of enrichment cycles by outcome",
		},
		[]string{"outcome"},
	)

	ExtractAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_attempts_total",
			Help: "Total number of detail extraction attempts by result",
		},
		[]string{"result"},
	)

	AICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Total number of AI call attempts by status",
		},
		[]string{"status"},
	)

	AICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_call_duration_seconds",
			Help:    "Duration of one AI call attempt",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)

// Supporting infrastructure
var (
	ConfigCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_cache_lookups_total",
			Help: "Configuration lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	DBConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)
