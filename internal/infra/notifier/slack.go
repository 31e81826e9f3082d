package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"isdnews/internal/domain/entity"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL. It carries the token.
	WebhookURL string

	Timeout time.Duration
}

// SlackNotifier mirrors announcements to one Slack Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier limits delivery to 1 request/second with burst 1, the
// Incoming Webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload is a Block Kit message with fallback text.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

// Block Kit limits
const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

// buildBlockKitPayload renders the linked title and the enriched content,
// truncated to the section limit, plus a context line with the team.
func buildBlockKitPayload(n *entity.Notification) SlackWebhookPayload {
	sectionText := fmt.Sprintf("*<%s|%s>*\n\n%s", n.URL, n.Title, n.Content)

	return SlackWebhookPayload{
		Text: truncate(n.Title, maxFallbackLength, slackTruncationSuffix),
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{
					Type: "mrkdwn",
					Text: truncate(sectionText, maxSectionTextLength, slackTruncationSuffix),
				},
			},
			{
				Type:     "context",
				Elements: []SlackTextObject{{Type: "mrkdwn", Text: "team: " + n.TeamCode}},
			},
		},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, n *entity.Notification) error {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("Notify: rate limiter: %w", err)
	}
	if err := postJSON(ctx, s.httpClient, s.config.WebhookURL, "Slack", buildBlockKitPayload(n)); err != nil {
		return fmt.Errorf("Notify: %w", err)
	}
	return nil
}
