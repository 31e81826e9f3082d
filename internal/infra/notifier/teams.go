package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"isdnews/internal/domain/entity"
)

// ConfigLookup resolves the per-team webhook URL.
type ConfigLookup interface {
	Lookup(ctx context.Context, key, teamCode string) (string, bool, error)
}

// TeamsMessageCard is the legacy connector card accepted by Teams
// Incoming Webhooks.
type TeamsMessageCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Sections   []TeamsSection `json:"sections"`
}

type TeamsSection struct {
	ActivityTitle    string `json:"activityTitle"`
	ActivitySubtitle string `json:"activitySubtitle"`
	Text             string `json:"text"`
}

const teamsThemeColor = "0076D7"

// TeamsNotifier posts to the webhook configured for the notification's team.
type TeamsNotifier struct {
	config      ConfigLookup
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

func NewTeamsNotifier(config ConfigLookup, timeout time.Duration) *TeamsNotifier {
	return &TeamsNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(2.0, 2),
	}
}

func buildMessageCard(n *entity.Notification) TeamsMessageCard {
	return TeamsMessageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		Summary:    n.Title,
		ThemeColor: teamsThemeColor,
		Sections: []TeamsSection{{
			ActivityTitle:    n.Title,
			ActivitySubtitle: "Source: " + n.URL,
			Text:             n.Content,
		}},
	}
}

// Notify sends n to the team's webhook. A team without a webhook is
// skipped silently.
func (t *TeamsNotifier) Notify(ctx context.Context, n *entity.Notification) error {
	webhook, found, err := t.config.Lookup(ctx, entity.ConfigTeamsWebhook, n.TeamCode)
	if err != nil {
		return fmt.Errorf("Notify: lookup webhook: %w", err)
	}
	webhook = strings.TrimSpace(webhook)
	if !found || webhook == "" {
		slog.Debug("no teams webhook configured, skipping",
			slog.String("team", n.TeamCode),
			slog.Int64("article_id", n.ArticleID))
		return nil
	}

	if err := t.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("Notify: rate limiter: %w", err)
	}
	if err := postJSON(ctx, t.httpClient, webhook, "Teams", buildMessageCard(n)); err != nil {
		return fmt.Errorf("Notify: %w", err)
	}
	return nil
}
