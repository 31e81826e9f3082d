package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"isdnews/internal/app"
	"isdnews/internal/infra/db"
	workerPkg "isdnews/internal/infra/worker"
	"isdnews/internal/observability/logging"
	"isdnews/internal/observability/tracing"
	"isdnews/internal/pkg/secret"
	"isdnews/internal/resilience/circuitbreaker"
	"isdnews/internal/usecase/collect"
	"isdnews/internal/usecase/enrich"
)

// shutdownTimeout bounds the wait for running jobs and notifications.
const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker exited", slog.String("error", secret.MaskError(err)))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定はフェイルオープン
	workerMetrics := workerPkg.NewWorkerMetrics()
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("collect_schedule", cfg.CollectSchedule),
		slog.String("enrich_schedule", cfg.EnrichSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("collect_max_concurrent", cfg.CollectMaxConcurrent),
		slog.Duration("enrich_delay", cfg.EnrichDelay),
		slog.String("renderer", cfg.Renderer),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort))

	shutdownTracing := tracing.Init("isdnews-worker", cfg.TraceSampleRatio)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing", slog.Any("error", err))
		}
	}()

	database, dialect, err := db.Open(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	application, err := app.New(database, dialect, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("failed to close renderer", slog.Any("error", err))
		}
	}()

	startMetricsServer(ctx, logger, cfg.MetricsPort, application.Notify, database)

	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	healthServer.AddCheck("database", circuitbreaker.NewDBCircuitBreaker(database).PingContext)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	c, err := newScheduler(ctx, logger, cfg, workerMetrics, application)
	if err != nil {
		return err
	}
	c.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("collect_schedule", cfg.CollectSchedule),
		slog.String("enrich_schedule", cfg.EnrichSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	select {
	case <-c.Stop().Done():
	case <-time.After(shutdownTimeout):
		logger.Warn("running jobs did not finish before shutdown timeout")
	}

	notifyCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Notify.Shutdown(notifyCtx); err != nil {
		logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
	return nil
}

// newScheduler registers the collect and enrich jobs. A run that is still
// going when its next tick fires makes that tick a no-op.
func newScheduler(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics, application *app.App) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(cfg.CollectSchedule, func() {
		runCollectJob(ctx, logger, application.Collect, cfg, m)
	}); err != nil {
		return nil, fmt.Errorf("schedule collect job: %w", err)
	}
	if _, err := c.AddFunc(cfg.EnrichSchedule, func() {
		runEnrichJob(ctx, logger, application.Enrich, cfg, m)
	}); err != nil {
		return nil, fmt.Errorf("schedule enrich job: %w", err)
	}
	return c, nil
}

// runCollectJob collects every due source with the whole-run deadline.
func runCollectJob(ctx context.Context, logger *slog.Logger, svc *collect.Service, cfg *workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics) {
	const job = workerPkg.JobCollect
	startTime := time.Now()
	m.RecordJobRun(job, "started")

	ctx, cancel := context.WithTimeout(ctx, cfg.CollectTimeout)
	defer cancel()

	stats, err := svc.CollectDue(ctx, "")
	m.RecordJobDuration(job, time.Since(startTime).Seconds())
	if err != nil {
		logger.Error("collect job failed", slog.String("error", secret.MaskError(err)))
		m.RecordJobRun(job, "failure")
		return
	}

	m.RecordJobRun(job, "success")
	m.RecordItemsProcessed(job, stats.Sources)
	m.RecordLastSuccess(job)
	logger.Info("collect job completed",
		slog.Int("sources", stats.Sources),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("partial", stats.Partial),
		slog.Int("failed", stats.Failed),
		slog.Int("created", stats.Created),
		slog.Duration("duration", stats.Duration))
}

// runEnrichJob runs enrichment cycles until the backlog is empty or the
// per-tick cycle limit is reached.
func runEnrichJob(ctx context.Context, logger *slog.Logger, svc *enrich.Service, cfg *workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics) {
	const job = workerPkg.JobEnrich
	startTime := time.Now()
	m.RecordJobRun(job, "started")

	enriched, err := svc.Drain(ctx, "", cfg.EnrichMaxCycles)
	m.RecordJobDuration(job, time.Since(startTime).Seconds())
	m.RecordItemsProcessed(job, enriched)
	if err != nil {
		logger.Error("enrich job failed",
			slog.Int("enriched", enriched),
			slog.String("error", secret.MaskError(err)))
		m.RecordJobRun(job, "failure")
		return
	}

	m.RecordJobRun(job, "success")
	m.RecordLastSuccess(job)
	logger.Info("enrich job completed",
		slog.Int("enriched", enriched),
		slog.Duration("duration", time.Since(startTime)))
}
