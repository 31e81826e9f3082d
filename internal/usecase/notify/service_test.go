package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/notifier"
	"isdnews/internal/observability/logging"
)

type mockChannel struct {
	name        string
	enabled     bool
	sendError   error
	sendDelay   time.Duration
	panicOnSend bool

	mu       sync.Mutex
	received []*entity.Notification
	ctxIDs   []string
}

func (m *mockChannel) Name() string    { return m.name }
func (m *mockChannel) IsEnabled() bool { return m.enabled }

func (m *mockChannel) Send(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	m.received = append(m.received, n)
	m.ctxIDs = append(m.ctxIDs, logging.RunIDFromContext(ctx))
	shouldPanic := m.panicOnSend
	m.mu.Unlock()

	if shouldPanic {
		panic("mock panic in Send()")
	}
	if m.sendDelay > 0 {
		select {
		case <-time.After(m.sendDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.sendError
}

func (m *mockChannel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func notification() *entity.Notification {
	return &entity.Notification{
		ArticleID: 1,
		TeamCode:  "dev",
		Title:     "New article for team dev: Test Article",
		URL:       "https://example.com/article",
		Content:   "briefing",
	}
}

func wait(svc Service) {
	svc.(*service).wg.Wait()
}

/* ───────── 配信 ───────── */

func TestNotify_OnlyEnabledChannels(t *testing.T) {
	teams := &mockChannel{name: "teams", enabled: true}
	slack := &mockChannel{name: "slack", enabled: false}
	svc := NewService([]Channel{teams, slack}, 10)

	require.NoError(t, svc.Notify(context.Background(), notification()))
	wait(svc)

	assert.Equal(t, 1, teams.calls())
	assert.Equal(t, 0, slack.calls())
	assert.Equal(t, "New article for team dev: Test Article", teams.received[0].Title)
}

func TestNotify_NonBlocking(t *testing.T) {
	slow := &mockChannel{name: "teams", enabled: true, sendDelay: 300 * time.Millisecond}
	svc := NewService([]Channel{slow}, 10)

	start := time.Now()
	require.NoError(t, svc.Notify(context.Background(), notification()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	wait(svc)
	assert.Equal(t, 1, slow.calls())
}

func TestNotify_InvalidNotificationIgnored(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true}
	svc := NewService([]Channel{ch}, 10)

	assert.NoError(t, svc.Notify(context.Background(), nil))
	assert.NoError(t, svc.Notify(context.Background(), &entity.Notification{Title: "no url"}))
	wait(svc)

	assert.Equal(t, 0, ch.calls())
}

func TestNotify_RequestIDInherited(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true}
	svc := NewService([]Channel{ch}, 10)

	ctx := logging.ContextWithRunID(context.Background(), "run-123")
	require.NoError(t, svc.Notify(ctx, notification()))
	wait(svc)

	assert.Equal(t, []string{"run-123"}, ch.ctxIDs)
}

func TestNotify_RequestIDGenerated(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true}
	svc := NewService([]Channel{ch}, 10)

	require.NoError(t, svc.Notify(context.Background(), notification()))
	wait(svc)

	require.Len(t, ch.ctxIDs, 1)
	assert.Len(t, ch.ctxIDs[0], 36)
}

func TestNotify_FailingChannelDoesNotAffectOthers(t *testing.T) {
	failing := &mockChannel{name: "teams", enabled: true, sendError: errors.New("webhook down")}
	ok := &mockChannel{name: "slack", enabled: true}
	svc := NewService([]Channel{failing, ok}, 10)

	require.NoError(t, svc.Notify(context.Background(), notification()))
	wait(svc)

	assert.Equal(t, 1, failing.calls())
	assert.Equal(t, 1, ok.calls())
}

func TestNotify_PanicRecovered(t *testing.T) {
	bad := &mockChannel{name: "teams", enabled: true, panicOnSend: true}
	good := &mockChannel{name: "slack", enabled: true}
	svc := NewService([]Channel{bad, good}, 10)

	assert.NotPanics(t, func() {
		require.NoError(t, svc.Notify(context.Background(), notification()))
		wait(svc)
	})
	assert.Equal(t, 1, good.calls())
}

/* ───────── サーキットブレーカー ───────── */

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true, sendError: &notifier.ServerError{StatusCode: 502, Message: "bad gateway"}}
	svc := NewService([]Channel{ch}, 1)

	for i := 0; i < circuitBreakerThreshold; i++ {
		require.NoError(t, svc.Notify(context.Background(), notification()))
		wait(svc)
	}
	assert.Equal(t, circuitBreakerThreshold, ch.calls())

	health := svc.GetChannelHealth()
	require.Len(t, health, 1)
	assert.True(t, health[0].CircuitBreakerOpen)
	require.NotNil(t, health[0].DisabledUntil)

	require.NoError(t, svc.Notify(context.Background(), notification()))
	wait(svc)
	assert.Equal(t, circuitBreakerThreshold, ch.calls(), "open circuit drops the notification")
}

func TestCircuitBreaker_ClosesAfterTimeout(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true, sendError: errors.New("down")}
	svc := NewService([]Channel{ch}, 1)
	impl := svc.(*service)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }

	for i := 0; i < circuitBreakerThreshold; i++ {
		_ = svc.Notify(context.Background(), notification())
		wait(svc)
	}
	assert.True(t, svc.GetChannelHealth()[0].CircuitBreakerOpen)

	now = now.Add(circuitBreakerTimeout + time.Second)
	assert.False(t, svc.GetChannelHealth()[0].CircuitBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true, sendError: errors.New("flaky")}
	svc := NewService([]Channel{ch}, 1)

	for i := 0; i < circuitBreakerThreshold-1; i++ {
		_ = svc.Notify(context.Background(), notification())
		wait(svc)
	}
	ch.mu.Lock()
	ch.sendError = nil
	ch.mu.Unlock()
	_ = svc.Notify(context.Background(), notification())
	wait(svc)

	assert.Equal(t, 0, svc.(*service).channelHealth["teams"].health("").consecutiveFailures)
	assert.False(t, svc.GetChannelHealth()[0].CircuitBreakerOpen)
}

func TestCircuitBreaker_TeamsWebhookFailuresAreCountedPerTeam(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer broken.Close()
	var baHits atomic.Int32
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		baHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	teams := NewTeamsChannel(webhookConfig{
		"teams_webhook/dev": broken.URL,
		"teams_webhook/ba":  healthy.URL,
	}, time.Second)
	svc := NewService([]Channel{teams}, 1)

	for i := 0; i < circuitBreakerThreshold; i++ {
		require.NoError(t, svc.Notify(context.Background(), notification()))
		wait(svc)
	}

	ba := notification()
	ba.TeamCode = "ba"
	ba.Title = "New article for team ba: Test Article"
	require.NoError(t, svc.Notify(context.Background(), ba))
	wait(svc)

	assert.Equal(t, int32(1), baHits.Load(), "ba is delivered while dev's circuit is open")

	health := svc.GetChannelHealth()
	require.Len(t, health, 2)
	assert.Equal(t, ChannelHealthStatus{Name: "teams", Team: "ba", Enabled: true}, health[0])
	assert.Equal(t, "dev", health[1].Team)
	assert.True(t, health[1].CircuitBreakerOpen)
}

/* ───────── シャットダウン ───────── */

func TestShutdown_WaitsForInflight(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true, sendDelay: 100 * time.Millisecond}
	svc := NewService([]Channel{ch}, 10)
	require.NoError(t, svc.Notify(context.Background(), notification()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, svc.Shutdown(ctx))
	assert.Equal(t, 1, ch.calls())
}

func TestShutdown_Timeout(t *testing.T) {
	ch := &mockChannel{name: "teams", enabled: true, panicOnSend: false}
	svc := NewService([]Channel{ch}, 10)
	impl := svc.(*service)
	impl.wg.Add(1)
	defer impl.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Shutdown(ctx), context.DeadlineExceeded)
}
