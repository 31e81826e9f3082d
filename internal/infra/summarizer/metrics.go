package summarizer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback reasons recorded when the original text is returned unchanged.
const (
	reasonNoKey    = "no_api_key"
	reasonRejected = "circuit_open"
	reasonFailed   = "request_failed"
	reasonEmpty    = "empty_response"
)

// MetricsRecorder observes enrichment results. Tests inject a fake.
type MetricsRecorder interface {
	// RecordLength records the length of an enriched text in runes.
	RecordLength(length int)

	// RecordFallback counts a call that returned the input unchanged.
	RecordFallback(reason string)
}

// PrometheusMetrics implements MetricsRecorder with Prometheus collectors.
type PrometheusMetrics struct {
	lengthHistogram prometheus.Histogram
	fallbackCounter *prometheus.CounterVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// NewPrometheusMetrics returns the process-wide recorder, registering it once.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			lengthHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "ai_enrichment_length_characters",
				Help:    "Distribution of enriched text lengths in characters (Unicode runes)",
				Buckets: []float64{100, 300, 500, 1000, 1500, 2000, 3000, 5000},
			}),
			fallbackCounter: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "ai_enrichment_fallbacks_total",
				Help: "Enrichment calls that returned the original text, by reason",
			}, []string{"reason"}),
		}
	})
	return prometheusMetricsInstance
}

func (p *PrometheusMetrics) RecordLength(length int) {
	p.lengthHistogram.Observe(float64(length))
}

func (p *PrometheusMetrics) RecordFallback(reason string) {
	p.fallbackCounter.WithLabelValues(reason).Inc()
}
