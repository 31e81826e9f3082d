// Package app wires repositories, adapters and use cases into the object
// graph shared by the worker and the CLI.
package app

import (
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	pgRepo "isdnews/internal/infra/adapter/persistence/postgres"
	sqliteRepo "isdnews/internal/infra/adapter/persistence/sqlite"
	"isdnews/internal/infra/configstore"
	"isdnews/internal/infra/db"
	"isdnews/internal/infra/extractor"
	"isdnews/internal/infra/notifier"
	"isdnews/internal/infra/renderer"
	"isdnews/internal/infra/scraper"
	"isdnews/internal/infra/summarizer"
	"isdnews/internal/infra/worker"
	"isdnews/internal/repository"
	"isdnews/internal/resilience/retry"
	"isdnews/internal/usecase/collect"
	"isdnews/internal/usecase/enrich"
	"isdnews/internal/usecase/notify"
)

// Repositories groups the persistence adapters of one dialect.
type Repositories struct {
	Sources    repository.SourceRepository
	Articles   repository.ArticleRepository
	Teams      repository.TeamRepository
	FetchLogs  repository.FetchLogRepository
	AILogs     repository.AILogRepository
	Configs    repository.ConfigRepository
	Enrichment repository.EnrichmentStore
}

// NewRepositories selects the adapters matching dialect.
func NewRepositories(database *sql.DB, dialect db.Dialect) (*Repositories, error) {
	switch dialect {
	case db.Postgres:
		return &Repositories{
			Sources:    pgRepo.NewSourceRepo(database),
			Articles:   pgRepo.NewArticleRepo(database),
			Teams:      pgRepo.NewTeamRepo(database),
			FetchLogs:  pgRepo.NewFetchLogRepo(database),
			AILogs:     pgRepo.NewAILogRepo(database),
			Configs:    pgRepo.NewConfigRepo(database),
			Enrichment: pgRepo.NewEnrichmentStore(database),
		}, nil
	case db.SQLite:
		return &Repositories{
			Sources:    sqliteRepo.NewSourceRepo(database),
			Articles:   sqliteRepo.NewArticleRepo(database),
			Teams:      sqliteRepo.NewTeamRepo(database),
			FetchLogs:  sqliteRepo.NewFetchLogRepo(database),
			AILogs:     sqliteRepo.NewAILogRepo(database),
			Configs:    sqliteRepo.NewConfigRepo(database),
			Enrichment: sqliteRepo.NewEnrichmentStore(database),
		}, nil
	default:
		return nil, fmt.Errorf("no repositories for dialect %q", dialect)
	}
}

// App is the wired process. Callers Shutdown Notify before Close.
type App struct {
	Repos   *Repositories
	Config  *configstore.Cache
	Collect *collect.Service
	Enrich  *enrich.Service
	Notify  notify.Service

	closers []func() error
}

// New builds the object graph from cfg.
func New(database *sql.DB, dialect db.Dialect, cfg *worker.WorkerConfig) (*App, error) {
	repos, err := NewRepositories(database, dialect)
	if err != nil {
		return nil, err
	}

	a := &App{Repos: repos}
	a.Config = configstore.New(repos.Configs, cfg.ConfigCacheTTL)

	// Collect
	fetchClient := newHTTPClient(30 * time.Second)
	registry := &scraper.Registry{
		Feed:     scraper.NewFeedFetcher(fetchClient),
		API:      scraper.NewAPIFetcher(fetchClient),
		Rendered: scraper.NewRenderedFetcher(newHTTPClient(90*time.Second), a.Config, cfg.AgentQLEndpoint),
	}
	a.Collect = collect.NewService(
		repos.Sources,
		repos.FetchLogs,
		registry,
		collect.NewDedupGate(repos.Articles, cfg.CollectMaxNewPerRun),
		collect.Config{
			MaxConcurrent: cfg.CollectMaxConcurrent,
			SourceTimeout: cfg.CollectSourceTimeout,
		},
	)

	// Enrich
	renderCfg := renderer.DefaultConfig()
	renderCfg.BrowserURL = cfg.BrowserURL
	var pageRenderer extractor.Renderer
	switch cfg.Renderer {
	case worker.RendererHTTP:
		pageRenderer = renderer.NewHTTP(renderCfg)
	default:
		rod := renderer.NewRod(renderCfg)
		a.closers = append(a.closers, rod.Close)
		pageRenderer = rod
	}
	slog.Info("page renderer selected", slog.String("renderer", cfg.Renderer))

	ext := extractor.New(pageRenderer, extractor.Config{
		MaxChars: cfg.ExtractMaxChars,
		MinChars: cfg.ExtractMinChars,
	})

	retryCfg := retry.AIAPIConfig()
	retryCfg.MaxAttempts = cfg.AIMaxAttempts
	sum := summarizer.NewOpenRouter(a.Config, repos.AILogs, enrich.NewGate(cfg.EnrichDelay), summarizer.Config{
		Model:   cfg.AIModel,
		BaseURL: cfg.AIBaseURL,
		Retry:   retryCfg,
	})

	a.Notify = notify.NewService(notificationChannels(a.Config, cfg), cfg.NotifyMaxConcurrent)

	a.Enrich = enrich.NewService(
		repos.Enrichment,
		repos.Teams,
		a.Config,
		ext,
		sum,
		a.Notify,
		enrich.Config{
			MaxAttempts: cfg.EnrichMaxAttempts,
			MaxCycles:   cfg.EnrichMaxCycles,
		},
	)

	return a, nil
}

func notificationChannels(config notifier.ConfigLookup, cfg *worker.WorkerConfig) []notify.Channel {
	channels := []notify.Channel{notify.NewTeamsChannel(config, 30*time.Second)}

	slack := notifier.SlackConfig{
		Enabled:    cfg.SlackEnabled,
		WebhookURL: cfg.SlackWebhookURL,
		Timeout:    30 * time.Second,
	}
	if slack.Enabled && slack.WebhookURL == "" {
		slog.Warn("Slack webhook URL is empty, disabling notifications")
		slack.Enabled = false
	}
	if slack.Enabled {
		channels = append(channels, notify.NewSlackChannel(slack))
	}
	return channels
}

// Close releases resources acquired by New.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newHTTPClient creates an HTTP client with pooled connections and TLS 1.2+.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
