package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"isdnews/internal/domain/entity"
	"isdnews/internal/observability/logging"
	"isdnews/internal/observability/metrics"
	"isdnews/internal/observability/tracing"
	"isdnews/internal/repository"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeIdle          Outcome = "idle"
	OutcomeExtractFailed Outcome = "extract_failed"
	OutcomeEnriched      Outcome = "enriched"
	// OutcomeSkipped means another worker enriched the article first.
	OutcomeSkipped Outcome = "skipped"
)

// CycleResult describes one cycle. TeamCode and ArticleID are empty when
// the cycle was idle.
type CycleResult struct {
	Outcome   Outcome
	TeamCode  string
	ArticleID int64
	Duration  time.Duration
}

type Config struct {
	// MaxAttempts is the extraction attempt ceiling of an article.
	MaxAttempts int
	// MaxCycles bounds Drain when the caller passes no limit.
	MaxCycles int
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 3, MaxCycles: 20}
}

type Service struct {
	Store      repository.EnrichmentStore
	Teams      repository.TeamRepository
	Settings   ConfigLookup
	Extractor  DetailExtractor
	Summarizer Summarizer
	Notifier   Notifier

	cfg Config
	now func() time.Time
}

// NewService wires the enrich use case. A nil notifier disables
// announcements; nil settings leave the job always enabled. Zero fields of
// cfg take their defaults.
func NewService(
	store repository.EnrichmentStore,
	teams repository.TeamRepository,
	settings ConfigLookup,
	ext DetailExtractor,
	sum Summarizer,
	notifier Notifier,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = def.MaxCycles
	}
	return &Service{
		Store:      store,
		Teams:      teams,
		Settings:   settings,
		Extractor:  ext,
		Summarizer: sum,
		Notifier:   notifier,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RunCycle enriches at most one article. Without a team filter the teams
// are tried in rotation order after the stored cursor and the first team
// with an eligible article is served. The cycle is idle while the job is
// switched off in the configuration store.
func (s *Service) RunCycle(ctx context.Context, teamCode string) (*CycleResult, error) {
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	ctx, span := tracing.GetTracer().Start(ctx, "enrich.cycle")
	defer span.End()
	span.SetAttributes(attribute.String("team_filter", teamCode))

	logger := logging.WithTrace(ctx, logging.WithRunID(ctx, slog.Default()))
	start := s.now()

	on, err := s.enabled(ctx)
	if err != nil {
		metrics.RecordEnrichCycle("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrich cycle")
		return nil, fmt.Errorf("RunCycle: %w", err)
	}
	if !on {
		logger.Info("enrichment job disabled, skipping cycle")
		metrics.RecordEnrichCycle(string(OutcomeIdle))
		return &CycleResult{Outcome: OutcomeIdle, Duration: s.now().Sub(start)}, nil
	}

	res := &CycleResult{Outcome: OutcomeIdle}
	var enriched *entity.Article

	err = s.Store.WithinTx(ctx, func(tx repository.EnrichmentTx) error {
		cursor, err := tx.LockCursor(ctx)
		if err != nil {
			return err
		}
		teams, err := s.candidates(ctx, cursor, teamCode)
		if err != nil {
			return err
		}

		var (
			article *entity.Article
			team    entity.Team
		)
		for _, t := range teams {
			a, err := tx.NextUnenriched(ctx, t.Code, s.cfg.MaxAttempts)
			if err != nil {
				return err
			}
			if a != nil {
				article, team = a, t
				break
			}
		}
		if article == nil {
			return nil
		}
		res.TeamCode, res.ArticleID = team.Code, article.ID
		alog := logger.With(
			slog.Int64("article_id", article.ID),
			slog.String("team", team.Code),
			slog.String("url", article.URL))

		detail := s.Extractor.Extract(ctx, article.URL)
		if detail.Empty() {
			res.Outcome = OutcomeExtractFailed
			alog.Warn("extraction produced no content",
				slog.Int("attempts", article.EnrichAttempts+1),
				slog.Int("max_attempts", s.cfg.MaxAttempts))
			return tx.IncrementAttempts(ctx, article.ID)
		}

		aiContent := s.Summarizer.Summarize(ctx, detail.Content, article.URL, team.Code)
		e := entity.Enrichment{
			Content:   detail.Content,
			Thumbnail: detail.Thumbnail,
			AIContent: aiContent,
			TeamCode:  team.Code,
		}
		ok, err := tx.MarkEnriched(ctx, article.ID, e)
		if err != nil {
			return err
		}
		if !ok {
			res.Outcome = OutcomeSkipped
			alog.Info("article already enriched by another worker")
			return nil
		}
		if err := tx.SetCursor(ctx, team.Code); err != nil {
			return err
		}

		article.Content, article.Thumbnail = e.Content, e.Thumbnail
		article.AIContent, article.AITeam, article.Enriched = e.AIContent, e.TeamCode, true
		enriched = article
		res.Outcome = OutcomeEnriched
		return nil
	})
	res.Duration = s.now().Sub(start)

	if err != nil {
		if errors.Is(err, ErrNoActiveTeams) {
			logger.Warn("no active teams, enrichment idle")
			metrics.RecordEnrichCycle(string(OutcomeIdle))
			return &CycleResult{Outcome: OutcomeIdle, Duration: res.Duration}, nil
		}
		metrics.RecordEnrichCycle("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrich cycle")
		return nil, fmt.Errorf("RunCycle: %w", err)
	}

	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	metrics.RecordEnrichCycle(string(res.Outcome))

	if enriched != nil {
		// 通知はコミット後のみ。失敗してもサイクルの結果は変わらない
		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, entity.NewNotification(enriched, res.TeamCode)); err != nil {
				logger.Warn("notification dispatch failed",
					slog.Int64("article_id", enriched.ID),
					slog.Any("error", err))
			}
		}
		logger.Info("article enriched",
			slog.Int64("article_id", res.ArticleID),
			slog.String("team", res.TeamCode),
			slog.Duration("duration", res.Duration))
	} else {
		logger.Debug("enrich cycle finished", slog.String("outcome", string(res.Outcome)))
	}
	return res, nil
}

// enabled reads the job switch. An absent or unparsable value counts as on.
func (s *Service) enabled(ctx context.Context) (bool, error) {
	if s.Settings == nil {
		return true, nil
	}
	v, found, err := s.Settings.Lookup(ctx, entity.ConfigEnrichmentEnabled, "")
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", entity.ConfigEnrichmentEnabled, err)
	}
	if !found {
		return true, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid enrichment switch value, treating as enabled",
			slog.String("key", entity.ConfigEnrichmentEnabled),
			slog.String("value", v))
		return true, nil
	}
	return on, nil
}

// candidates returns the teams to try this cycle, in order.
func (s *Service) candidates(ctx context.Context, cursor, teamCode string) ([]entity.Team, error) {
	if teamCode != "" {
		t, err := s.Teams.Get(ctx, teamCode)
		if err != nil {
			return nil, err
		}
		if t == nil || !t.Active {
			return nil, fmt.Errorf("team %q: %w", teamCode, ErrUnknownTeam)
		}
		return []entity.Team{*t}, nil
	}

	active, err := s.Teams.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveTeams
	}
	return Rotation(cursor, active), nil
}

// Drain runs cycles one after another until a cycle is idle, maxCycles
// cycles have run (<= 0 uses the configured limit) or ctx is done. It
// returns the number of articles enriched.
func (s *Service) Drain(ctx context.Context, teamCode string, maxCycles int) (int, error) {
	if maxCycles <= 0 {
		maxCycles = s.cfg.MaxCycles
	}

	enriched := 0
	for i := 0; i < maxCycles; i++ {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}
		res, err := s.RunCycle(ctx, teamCode)
		if err != nil {
			return enriched, err
		}
		if res.Outcome == OutcomeEnriched {
			enriched++
		}
		if res.Outcome == OutcomeIdle {
			break
		}
	}
	return enriched, nil
}
