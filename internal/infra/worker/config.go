// Package worker holds the scheduled process's configuration, its health
// server and its cron job metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"isdnews/internal/pkg/config"
)

// Renderer backends selectable with RENDERER.
const (
	RendererRod  = "rod"
	RendererHTTP = "http"
)

// WorkerConfig holds every policy knob the worker and the CLI read from the
// environment. Database settings are read separately by db.Open.
//
// All fields have defaults, and LoadConfigFromEnv never fails: an invalid
// value is replaced by its default and reported through WorkerMetrics.
type WorkerConfig struct {
	// CollectSchedule and EnrichSchedule are 5-field cron expressions
	// evaluated in Timezone.
	CollectSchedule string
	EnrichSchedule  string
	Timezone        string

	// CollectMaxConcurrent bounds the number of sources fetched at once.
	// Range: 1-50
	CollectMaxConcurrent int
	// CollectMaxNewPerRun caps the new articles persisted per source run.
	CollectMaxNewPerRun int
	// CollectSourceTimeout bounds one source run, CollectTimeout a whole pass.
	CollectSourceTimeout time.Duration
	CollectTimeout       time.Duration

	// EnrichDelay is the minimum spacing between enrichment cycles.
	EnrichDelay       time.Duration
	EnrichMaxCycles   int
	EnrichMaxAttempts int

	ExtractMaxChars int
	ExtractMinChars int

	ConfigCacheTTL time.Duration

	HealthPort  int
	MetricsPort int

	AIModel       string
	AIBaseURL     string
	AIMaxAttempts int

	// Renderer is "rod" (headless Chromium) or "http" (plain GET).
	Renderer string
	// BrowserURL points rod at a running browser's DevTools endpoint.
	// Empty launches a local browser.
	BrowserURL      string
	AgentQLEndpoint string

	NotifyMaxConcurrent int

	SlackEnabled    bool
	SlackWebhookURL string

	TraceSampleRatio float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CollectSchedule:      "*/5 * * * *",
		EnrichSchedule:       "*/5 * * * *",
		Timezone:             "Asia/Ho_Chi_Minh",
		CollectMaxConcurrent: 10,
		CollectMaxNewPerRun:  5,
		CollectSourceTimeout: 2 * time.Minute,
		CollectTimeout:       15 * time.Minute,
		EnrichDelay:          10 * time.Second,
		EnrichMaxCycles:      20,
		EnrichMaxAttempts:    3,
		ExtractMaxChars:      4000,
		ExtractMinChars:      300,
		ConfigCacheTTL:       300 * time.Second,
		HealthPort:           9091,
		MetricsPort:          9090,
		AIModel:              "openai/gpt-4o-mini",
		AIBaseURL:            "https://openrouter.ai/api/v1",
		AIMaxAttempts:        3,
		Renderer:             RendererRod,
		AgentQLEndpoint:      "https://api.agentql.com/v1/query-data",
		NotifyMaxConcurrent:  10,
		TraceSampleRatio:     1.0,
	}
}

func validateRenderer(v string) error {
	if v != RendererRod && v != RendererHTTP {
		return fmt.Errorf("must be %q or %q", RendererRod, RendererHTTP)
	}
	return nil
}

func validateNonEmpty(v string) error {
	if v == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func intRange(min, max int) func(int) error {
	return func(v int) error { return config.ValidateIntRange(v, min, max) }
}

func durationRange(min, max time.Duration) func(time.Duration) error {
	return func(d time.Duration) error { return config.ValidateDuration(d, min, max) }
}

// Validate checks every field and returns all failures together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	check := func(field string, err error) {
		if err != nil {
			errors = append(errors, fmt.Errorf("%s: %w", field, err))
		}
	}

	check("collect schedule", config.ValidateCronSchedule(c.CollectSchedule))
	check("enrich schedule", config.ValidateCronSchedule(c.EnrichSchedule))
	check("timezone", config.ValidateTimezone(c.Timezone))
	check("collect max concurrent", intRange(1, 50)(c.CollectMaxConcurrent))
	check("collect max new per run", intRange(1, 100)(c.CollectMaxNewPerRun))
	check("collect source timeout", durationRange(5*time.Second, 30*time.Minute)(c.CollectSourceTimeout))
	check("collect timeout", durationRange(1*time.Minute, 4*time.Hour)(c.CollectTimeout))
	check("enrich delay", durationRange(0, 10*time.Minute)(c.EnrichDelay))
	check("enrich max cycles", intRange(1, 1000)(c.EnrichMaxCycles))
	check("enrich max attempts", intRange(1, 20)(c.EnrichMaxAttempts))
	check("extract max chars", intRange(500, 100000)(c.ExtractMaxChars))
	check("extract min chars", intRange(0, c.ExtractMaxChars)(c.ExtractMinChars))
	check("config cache ttl", durationRange(1*time.Second, 24*time.Hour)(c.ConfigCacheTTL))
	check("health port", intRange(1024, 65535)(c.HealthPort))
	check("metrics port", intRange(1024, 65535)(c.MetricsPort))
	if c.HealthPort == c.MetricsPort {
		check("metrics port", fmt.Errorf("must differ from health port %d", c.HealthPort))
	}
	check("ai model", validateNonEmpty(c.AIModel))
	check("ai base url", validateNonEmpty(c.AIBaseURL))
	check("ai max attempts", intRange(1, 10)(c.AIMaxAttempts))
	check("renderer", validateRenderer(c.Renderer))
	check("notify max concurrent", intRange(1, 50)(c.NotifyMaxConcurrent))
	check("trace sample ratio", config.ValidateRatio(c.TraceSampleRatio))

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// loader applies one ConfigLoadResult at a time and reports fallbacks.
type loader struct {
	logger   *slog.Logger
	metrics  *WorkerMetrics
	fallback bool
}

func (l *loader) apply(field string, result config.ConfigLoadResult) interface{} {
	l.metrics.SetFallbackActive(field, result.FallbackApplied)
	if !result.FallbackApplied {
		return result.Value
	}
	l.fallback = true
	l.metrics.RecordValidationError(field)
	l.metrics.RecordFallback(field)
	for _, warning := range result.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
	return result.Value
}

// LoadConfigFromEnv loads the configuration with the fail-open strategy:
// start from DefaultConfig, load each variable, and keep the default (with a
// warning and a fallback metric) for any value that fails to parse or validate.
// The returned error is always nil.
//
// A pair that is individually valid but inconsistent (EXTRACT_MIN_CHARS above
// EXTRACT_MAX_CHARS, equal ports) also falls back on the dependent field.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	l := &loader{logger: logger, metrics: metrics}

	cfg.CollectSchedule = l.apply("collect_schedule",
		config.LoadEnvWithFallback("COLLECT_SCHEDULE", cfg.CollectSchedule, config.ValidateCronSchedule)).(string)
	cfg.EnrichSchedule = l.apply("enrich_schedule",
		config.LoadEnvWithFallback("ENRICH_SCHEDULE", cfg.EnrichSchedule, config.ValidateCronSchedule)).(string)
	cfg.Timezone = l.apply("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).(string)

	cfg.CollectMaxConcurrent = l.apply("collect_max_concurrent",
		config.LoadEnvInt("COLLECT_MAX_CONCURRENT", cfg.CollectMaxConcurrent, intRange(1, 50))).(int)
	cfg.CollectMaxNewPerRun = l.apply("collect_max_new_per_run",
		config.LoadEnvInt("COLLECT_MAX_NEW_PER_RUN", cfg.CollectMaxNewPerRun, intRange(1, 100))).(int)
	cfg.CollectSourceTimeout = l.apply("collect_source_timeout",
		config.LoadEnvDuration("COLLECT_SOURCE_TIMEOUT", cfg.CollectSourceTimeout, durationRange(5*time.Second, 30*time.Minute))).(time.Duration)
	cfg.CollectTimeout = l.apply("collect_timeout",
		config.LoadEnvDuration("COLLECT_TIMEOUT", cfg.CollectTimeout, durationRange(1*time.Minute, 4*time.Hour))).(time.Duration)

	cfg.EnrichDelay = l.apply("enrich_delay",
		config.LoadEnvDuration("ENRICH_DELAY", cfg.EnrichDelay, durationRange(0, 10*time.Minute))).(time.Duration)
	cfg.EnrichMaxCycles = l.apply("enrich_max_cycles",
		config.LoadEnvInt("ENRICH_MAX_CYCLES", cfg.EnrichMaxCycles, intRange(1, 1000))).(int)
	cfg.EnrichMaxAttempts = l.apply("enrich_max_attempts",
		config.LoadEnvInt("ENRICH_MAX_ATTEMPTS", cfg.EnrichMaxAttempts, intRange(1, 20))).(int)

	cfg.ExtractMaxChars = l.apply("extract_max_chars",
		config.LoadEnvInt("EXTRACT_MAX_CHARS", cfg.ExtractMaxChars, intRange(500, 100000))).(int)
	cfg.ExtractMinChars = l.apply("extract_min_chars",
		config.LoadEnvInt("EXTRACT_MIN_CHARS", cfg.ExtractMinChars, intRange(0, cfg.ExtractMaxChars))).(int)

	cfg.ConfigCacheTTL = l.apply("config_cache_ttl",
		config.LoadEnvDuration("CONFIG_CACHE_TTL", cfg.ConfigCacheTTL, durationRange(1*time.Second, 24*time.Hour))).(time.Duration)

	cfg.HealthPort = l.apply("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, intRange(1024, 65535))).(int)
	healthPort := cfg.HealthPort
	cfg.MetricsPort = l.apply("metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
			if v == healthPort {
				return fmt.Errorf("must differ from WORKER_HEALTH_PORT")
			}
			return config.ValidateIntRange(v, 1024, 65535)
		})).(int)
	if cfg.MetricsPort == cfg.HealthPort {
		// デフォルト同士が衝突した場合のみ
		cfg.MetricsPort = cfg.HealthPort - 1
	}

	cfg.AIModel = l.apply("ai_model",
		config.LoadEnvWithFallback("AI_MODEL", cfg.AIModel, validateNonEmpty)).(string)
	cfg.AIBaseURL = l.apply("ai_base_url",
		config.LoadEnvWithFallback("AI_BASE_URL", cfg.AIBaseURL, validateNonEmpty)).(string)
	cfg.AIMaxAttempts = l.apply("ai_max_attempts",
		config.LoadEnvInt("AI_MAX_ATTEMPTS", cfg.AIMaxAttempts, intRange(1, 10))).(int)

	cfg.Renderer = l.apply("renderer",
		config.LoadEnvWithFallback("RENDERER", cfg.Renderer, validateRenderer)).(string)
	cfg.BrowserURL = config.LoadEnvString("BROWSER_URL", "")
	cfg.AgentQLEndpoint = config.LoadEnvString("AGENTQL_ENDPOINT", cfg.AgentQLEndpoint)

	cfg.NotifyMaxConcurrent = l.apply("notify_max_concurrent",
		config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, intRange(1, 50))).(int)

	cfg.SlackEnabled = l.apply("slack_enabled",
		config.LoadEnvBool("SLACK_ENABLED", cfg.SlackEnabled)).(bool)
	cfg.SlackWebhookURL = config.LoadEnvString("SLACK_WEBHOOK_URL", "")

	cfg.TraceSampleRatio = l.apply("trace_sample_ratio",
		config.LoadEnvFloat("TRACE_SAMPLE_RATIO", cfg.TraceSampleRatio, config.ValidateRatio)).(float64)

	metrics.RecordLoadTimestamp()
	if l.fallback {
		logger.Warn("worker configuration loaded with fallbacks")
	}

	return &cfg, nil
}
