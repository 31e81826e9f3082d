package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/observability/logging"
	"isdnews/internal/observability/metrics"
	"isdnews/internal/observability/tracing"
	"isdnews/internal/pkg/secret"
	"isdnews/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Config bounds one collect run.
type Config struct {
	MaxConcurrent int           // sources fetched in parallel
	SourceTimeout time.Duration // deadline of a single source run
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 10,
		SourceTimeout: 2 * time.Minute,
	}
}

// Stats summarizes one CollectDue run.
type Stats struct {
	Sources   int
	Succeeded int
	Failed    int
	Partial   int
	Created   int
	Duration  time.Duration
}

func (st *Stats) add(log *entity.FetchLog) {
	switch log.Status {
	case entity.FetchSuccess:
		st.Succeeded++
	case entity.FetchPartial:
		st.Partial++
	default:
		st.Failed++
	}
	st.Created += log.ArticlesCount
}

// Service orchestrates source runs.
type Service struct {
	Sources   repository.SourceRepository
	FetchLogs repository.FetchLogRepository
	Fetchers  FetcherSelector
	Dedup     *DedupGate

	cfg Config
	now func() time.Time
}

// NewService wires the collect use case. Zero fields of cfg take their defaults.
func NewService(
	sources repository.SourceRepository,
	fetchLogs repository.FetchLogRepository,
	fetchers FetcherSelector,
	dedup *DedupGate,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = def.SourceTimeout
	}
	return &Service{
		Sources:   sources,
		FetchLogs: fetchLogs,
		Fetchers:  fetchers,
		Dedup:     dedup,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CollectDue runs every active source that is due, optionally for one team.
func (s *Service) CollectDue(ctx context.Context, teamCode string) (*Stats, error) {
	return s.collect(ctx, teamCode, false)
}

// CollectActive runs every active source regardless of its due state.
func (s *Service) CollectActive(ctx context.Context, teamCode string) (*Stats, error) {
	return s.collect(ctx, teamCode, true)
}

func (s *Service) collect(ctx context.Context, teamCode string, all bool) (*Stats, error) {
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	ctx, span := tracing.GetTracer().Start(ctx, "collect.run")
	defer span.End()
	span.SetAttributes(attribute.String("team", teamCode), attribute.Bool("all", all))

	logger := logging.WithTrace(ctx, logging.WithRunID(ctx, slog.Default()))
	start := s.now()

	srcs, err := s.Sources.ListActive(ctx, teamCode)
	if err != nil {
		span.SetStatus(codes.Error, "list sources")
		return nil, fmt.Errorf("CollectDue: list active sources: %w", err)
	}
	if !all {
		srcs = DueSources(srcs, start)
	}

	stats := &Stats{Sources: len(srcs)}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.MaxConcurrent)
	for _, src := range srcs {
		eg.Go(func() error {
			log := s.runSource(egCtx, src)
			mu.Lock()
			stats.add(log)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	stats.Duration = s.now().Sub(start)
	logger.Info("collect run completed",
		slog.String("team", teamCode),
		slog.Int("sources", stats.Sources),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("partial", stats.Partial),
		slog.Int("failed", stats.Failed),
		slog.Int("created", stats.Created),
		slog.Duration("duration", stats.Duration))

	return stats, ctx.Err()
}

// CollectSource runs one source whether or not it is due.
func (s *Service) CollectSource(ctx context.Context, id int64) (*entity.FetchLog, error) {
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())

	src, err := s.Sources.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CollectSource: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("CollectSource: id=%d: %w", id, ErrSourceNotFound)
	}
	return s.runSource(ctx, src), nil
}

// runSource takes one source from Fetching to Logged. It never fails: every
// outcome ends as a FetchLog row and a last_fetched update.
func (s *Service) runSource(ctx context.Context, src *entity.Source) *entity.FetchLog {
	ctx, span := tracing.GetTracer().Start(ctx, "collect.source")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("source_id", src.ID),
		attribute.String("source_kind", string(src.Kind)),
	)

	logger := logging.WithTrace(ctx, logging.WithRunID(ctx, slog.Default())).With(
		slog.Int64("source_id", src.ID),
		slog.String("source_name", src.Name),
		slog.String("team", src.TeamCode))

	start := s.now()
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	created, runErr := s.fetchAndPersist(runCtx, src)
	cancel()
	end := s.now()

	log := &entity.FetchLog{
		SourceID:      src.ID,
		Status:        entity.FetchSuccess,
		ArticlesCount: created,
		ExecutionTime: end.Sub(start),
	}
	switch {
	case runErr != nil && created > 0:
		log.Status = entity.FetchPartial
		log.ErrorMessage = secret.MaskError(runErr)
	case runErr != nil:
		log.Status = entity.FetchError
		log.ArticlesCount = 0
		log.ErrorMessage = secret.MaskError(runErr)
	}
	if runErr != nil {
		span.RecordError(errors.New(log.ErrorMessage))
		span.SetStatus(codes.Error, string(log.Status))
	}

	// The audit writes must land even when the run hit its deadline.
	writeCtx := context.WithoutCancel(ctx)
	if err := s.FetchLogs.Create(writeCtx, log); err != nil {
		logger.Error("failed to write fetch log", slog.Any("error", err))
	}
	if err := s.Sources.TouchFetchedAt(writeCtx, src.ID, end); err != nil {
		logger.Error("failed to update last_fetched", slog.Any("error", err))
	}

	metrics.RecordSourceRun(string(log.Status), log.ArticlesCount, log.ExecutionTime)
	if runErr != nil {
		logger.Warn("source run failed",
			slog.String("status", string(log.Status)),
			slog.Int("created", log.ArticlesCount),
			slog.String("error", log.ErrorMessage),
			slog.Duration("duration", log.ExecutionTime))
	} else {
		logger.Info("source run completed",
			slog.Int("created", created),
			slog.Duration("duration", log.ExecutionTime))
	}
	return log
}

func (s *Service) fetchAndPersist(ctx context.Context, src *entity.Source) (int, error) {
	fetcher, err := s.Fetchers.Select(src.Kind)
	if err != nil {
		return 0, err
	}
	items, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", src.Kind, err)
	}
	return s.Dedup.Persist(ctx, src, items)
}
