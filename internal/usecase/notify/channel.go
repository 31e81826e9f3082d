// Package notify dispatches enriched-article announcements to every enabled
// channel in the background. A failing channel never affects the caller or
// the other channels.
package notify

import (
	"context"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/notifier"
)

// Channel is one delivery target. Send must be safe for concurrent use and
// must respect ctx.
type Channel interface {
	// Name is a lowercase identifier used in logs, metrics and health output.
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, n *entity.Notification) error
}

// teamScoped is implemented by channels whose destination depends on the
// notification's team.
type teamScoped interface {
	PerTeam() bool
}

func validate(n *entity.Notification) error {
	if n == nil || n.Title == "" || n.URL == "" {
		return ErrInvalidNotification
	}
	return nil
}

// notifierChannel adapts an infra notifier to Channel.
type notifierChannel struct {
	name     string
	enabled  bool
	perTeam  bool
	notifier notifier.Notifier
}

func (c *notifierChannel) Name() string    { return c.name }
func (c *notifierChannel) IsEnabled() bool { return c.enabled }
func (c *notifierChannel) PerTeam() bool   { return c.perTeam }

func (c *notifierChannel) Send(ctx context.Context, n *entity.Notification) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if err := validate(n); err != nil {
		return err
	}
	return c.notifier.Notify(ctx, n)
}
