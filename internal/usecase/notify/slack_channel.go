package notify

import "isdnews/internal/infra/notifier"

// NewSlackChannel mirrors every notification to one Slack webhook. A
// disabled configuration yields a disabled channel backed by a no-op.
func NewSlackChannel(config notifier.SlackConfig) Channel {
	var n notifier.Notifier = notifier.NewNoOpNotifier()
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	}
	return &notifierChannel{name: "slack", enabled: config.Enabled, notifier: n}
}
