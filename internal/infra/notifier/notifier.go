// Package notifier delivers article announcements to chat webhooks.
// Microsoft Teams receives a MessageCard on the owning team's webhook and
// Slack can mirror every announcement through one Incoming Webhook.
package notifier

import (
	"context"

	"isdnews/internal/domain/entity"
)

// Notifier sends one announcement. Implementations do not retry; the
// caller decides what a failed delivery means.
type Notifier interface {
	Notify(ctx context.Context, n *entity.Notification) error
}
