package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"isdnews/internal/pkg/config"
)

// Cron job names used as the "job" label.
const (
	JobCollect = "collect"
	JobEnrich  = "enrich"
)

// WorkerMetrics holds the worker's cron job metrics and its configuration
// fallback metrics (worker_config_*).
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts runs by job and status (started/success/failure).
	CronJobRunsTotal *prometheus.CounterVec

	CronJobDurationSeconds *prometheus.HistogramVec

	// CronJobItemsProcessedTotal counts sources run (collect) or articles
	// enriched (enrich).
	CronJobItemsProcessedTotal *prometheus.CounterVec

	CronJobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics registers the metrics on the default registry.
// Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the metrics on reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by job and status",
		}, []string{"job", "status"}),

		CronJobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800}, // 1s .. 30m
		}, []string{"job"}),

		CronJobItemsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_items_processed_total",
			Help: "Total number of items processed across cron job runs",
		}, []string{"job"}),

		CronJobLastSuccessTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}, []string{"job"}),
	}
}

func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.CronJobRunsTotal.WithLabelValues(job, status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.CronJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

func (m *WorkerMetrics) RecordItemsProcessed(job string, count int) {
	m.CronJobItemsProcessedTotal.WithLabelValues(job).Add(float64(count))
}

func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.CronJobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
