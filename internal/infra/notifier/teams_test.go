package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isdnews/internal/domain/entity"
)

type mapConfig struct {
	values map[string]string
	err    error
}

func (m mapConfig) Lookup(_ context.Context, key, team string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key+"/"+team]
	return v, ok, nil
}

func sampleNotification() *entity.Notification {
	return &entity.Notification{
		ArticleID: 7,
		TeamCode:  "dev",
		Title:     "New article for team dev: Go 1.25 released",
		URL:       "https://go.dev/blog/go1.25",
		Content:   strings.Repeat("Long enriched briefing. ", 400),
	}
}

func TestTeamsNotifier_PostsMessageCard(t *testing.T) {
	var card map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&card)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	n := sampleNotification()
	tn := NewTeamsNotifier(mapConfig{values: map[string]string{"teams_webhook/dev": srv.URL}}, 5*time.Second)

	require.NoError(t, tn.Notify(context.Background(), n))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "MessageCard", card["@type"])
	assert.Equal(t, "http://schema.org/extensions", card["@context"])
	assert.Equal(t, n.Title, card["summary"])
	assert.Equal(t, "0076D7", card["themeColor"])

	sections := card["sections"].([]any)
	require.Len(t, sections, 1)
	section := sections[0].(map[string]any)
	assert.Equal(t, n.Title, section["activityTitle"])
	assert.Equal(t, "Source: https://go.dev/blog/go1.25", section["activitySubtitle"])
	assert.Equal(t, n.Content, section["text"], "content is sent untruncated")
}

func TestTeamsNotifier_NoWebhookIsNoOp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		values map[string]string
	}{
		{"absent", map[string]string{"teams_webhook/ba": srv.URL}},
		{"blank", map[string]string{"teams_webhook/dev": "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tn := NewTeamsNotifier(mapConfig{values: tt.values}, time.Second)
			assert.NoError(t, tn.Notify(context.Background(), sampleNotification()))
		})
	}
	assert.Zero(t, calls.Load())
}

func TestTeamsNotifier_LookupError(t *testing.T) {
	tn := NewTeamsNotifier(mapConfig{err: errors.New("db down")}, time.Second)

	err := tn.Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "db down")
}

func TestTeamsNotifier_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"bad request", http.StatusBadRequest, func(t *testing.T, err error) {
			var ce *ClientError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *RateLimitError
			require.ErrorAs(t, err, &rl)
			assert.Equal(t, 3*time.Second, rl.RetryAfter)
		}},
		{"server error", http.StatusBadGateway, func(t *testing.T, err error) {
			var se *ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			tn := NewTeamsNotifier(mapConfig{values: map[string]string{"teams_webhook/dev": srv.URL}}, time.Second)
			err := tn.Notify(context.Background(), sampleNotification())

			tt.check(t, err)
			assert.Equal(t, int32(1), calls.Load(), "deliveries are not retried")
		})
	}
}
