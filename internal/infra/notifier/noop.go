package notifier

import (
	"context"

	"isdnews/internal/domain/entity"
)

// NoOpNotifier stands in for a disabled channel.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) Notify(context.Context, *entity.Notification) error {
	return nil
}
