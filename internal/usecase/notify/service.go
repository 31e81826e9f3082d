package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/notifier"
	"isdnews/internal/observability/logging"
)

// Channel circuit breaker and pool limits.
const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 5 * time.Minute
	workerPoolTimeout       = 5 * time.Second
	notificationTimeout     = 30 * time.Second
)

// Service dispatches notifications without blocking the caller.
type Service interface {
	// Notify starts one delivery per enabled channel and returns at once.
	// Delivery failures are logged, never returned.
	Notify(ctx context.Context, n *entity.Notification) error

	// GetChannelHealth reports the circuit state of every channel.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown waits for in-flight deliveries or until ctx is done.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is the circuit state of one channel, or of one team's
// destination on a team-scoped channel.
type ChannelHealthStatus struct {
	Name               string     `json:"name"`
	Team               string     `json:"team,omitempty"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

type service struct {
	channels       []Channel
	workerPool     chan struct{}
	channelHealth  map[string]*channelState
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	now            func() time.Time
}

// channelHealth opens a circuit after consecutive failures.
type channelHealth struct {
	mu                  sync.Mutex
	consecutiveFailures int
	disabledUntil       time.Time
}

// channelState holds the circuits of one channel. A team-scoped channel has
// one circuit per team, so one team's broken webhook leaves the others alone.
type channelState struct {
	perTeam bool

	mu     sync.Mutex
	scopes map[string]*channelHealth
}

func newChannelState(ch Channel) *channelState {
	st := &channelState{scopes: make(map[string]*channelHealth)}
	if ts, ok := ch.(teamScoped); ok {
		st.perTeam = ts.PerTeam()
	}
	return st
}

// health returns the circuit for team, or the channel-wide circuit.
func (c *channelState) health(team string) *channelHealth {
	if !c.perTeam {
		team = ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.scopes[team]
	if !ok {
		h = &channelHealth{}
		c.scopes[team] = h
	}
	return h
}

// teams returns the team scopes seen so far, sorted.
func (c *channelState) teams() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.scopes))
	for team := range c.scopes {
		out = append(out, team)
	}
	sort.Strings(out)
	return out
}

// NewService limits concurrent deliveries to maxConcurrent (at least 1).
func NewService(channels []Channel, maxConcurrent int) Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelState, len(channels)),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
		now:            time.Now,
	}
	enabled := 0
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = newChannelState(ch)
		if ch.IsEnabled() {
			enabled++
		}
	}
	SetChannelsEnabled(float64(enabled))
	return svc
}

func (s *service) Notify(ctx context.Context, n *entity.Notification) error {
	if err := validate(n); err != nil {
		slog.Warn("invalid notification dropped", slog.Bool("nil", n == nil))
		return nil
	}

	requestID := logging.RunIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		s.wg.Add(1)
		go s.notifyChannel(requestID, ch, n)
	}
	return nil
}

func (s *service) notifyChannel(requestID string, channel Channel, n *entity.Notification) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	logger := slog.Default().With(
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Int64("article_id", n.ArticleID),
		slog.String("team", n.TeamCode))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in notification channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		logger.Warn("notification dropped: worker pool full")
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	health := s.channelHealth[channel.Name()].health(n.TeamCode)
	health.mu.Lock()
	if s.now().Before(health.disabledUntil) {
		until := health.disabledUntil
		health.mu.Unlock()
		logger.Warn("channel circuit open, notification dropped", slog.Time("disabled_until", until))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}
	health.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = logging.ContextWithRunID(ctx, requestID)

	start := time.Now()
	RecordDispatch(channel.Name())
	err := channel.Send(ctx, n)
	duration := time.Since(start)

	health.mu.Lock()
	if err != nil {
		health.consecutiveFailures++
		if health.consecutiveFailures >= circuitBreakerThreshold {
			health.disabledUntil = s.now().Add(circuitBreakerTimeout)
			logger.Error("circuit breaker opened for channel",
				slog.Int("consecutive_failures", health.consecutiveFailures))
			RecordCircuitBreakerOpen(channel.Name())
		}
	} else {
		health.consecutiveFailures = 0
	}
	health.mu.Unlock()

	if err != nil {
		var rl *notifier.RateLimitError
		if errors.As(err, &rl) {
			RecordRateLimitHit(channel.Name())
		}
		RecordFailure(channel.Name(), duration)
		logger.Warn("channel notification failed",
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	RecordSuccess(channel.Name(), duration)
	logger.Info("channel notification sent",
		slog.String("title", n.Title),
		slog.Duration("send_duration", duration))
}

// GetChannelHealth lists one status per channel. Team-scoped channels list
// one status per team that has been notified.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	now := s.now()
	for _, ch := range s.channels {
		state := s.channelHealth[ch.Name()]
		teams := state.teams()
		if len(teams) == 0 {
			statuses = append(statuses, ChannelHealthStatus{Name: ch.Name(), Enabled: ch.IsEnabled()})
			continue
		}
		for _, team := range teams {
			health := state.health(team)
			status := ChannelHealthStatus{Name: ch.Name(), Team: team, Enabled: ch.IsEnabled()}

			health.mu.Lock()
			if now.Before(health.disabledUntil) {
				until := health.disabledUntil
				status.CircuitBreakerOpen = true
				status.DisabledUntil = &until
			}
			health.mu.Unlock()

			statuses = append(statuses, status)
		}
	}
	return statuses
}

func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
