package notify

import (
	"time"

	"isdnews/internal/infra/notifier"
)

// NewTeamsChannel delivers to the webhook configured for each notification's
// team. It is always enabled; teams without a webhook are skipped by the
// notifier. Failures are counted per team.
func NewTeamsChannel(config notifier.ConfigLookup, timeout time.Duration) Channel {
	return &notifierChannel{
		name:     "teams",
		enabled:  true,
		perTeam:  true,
		notifier: notifier.NewTeamsNotifier(config, timeout),
	}
}
