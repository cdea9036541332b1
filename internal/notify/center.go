package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Permission is the user's answer to whether notifications may be shown.
type Permission interface {
	Status(ctx context.Context) (model.PermissionStatus, error)
	Request(ctx context.Context) (model.PermissionStatus, error)
}

// Center is the local notification center. Channels live in the database;
// each scheduled notification is shown as a terminal banner and fanned out
// to enabled webhooks.
type Center struct {
	store    storage.Provider
	perm     Permission
	webhooks *Dispatcher
	banner   io.Writer
}

// NewCenter creates a notification center. webhooks may be nil.
func NewCenter(store storage.Provider, perm Permission, webhooks *Dispatcher) *Center {
	return &Center{store: store, perm: perm, webhooks: webhooks}
}

// WithBanner makes the center print a banner to w for every notification.
func (c *Center) WithBanner(w io.Writer) *Center {
	c.banner = w
	return c
}

// PermissionStatus returns the stored notification permission.
func (c *Center) PermissionStatus(ctx context.Context) (model.PermissionStatus, error) {
	return c.perm.Status(ctx)
}

// RequestPermission asks for notification permission if it is undetermined.
func (c *Center) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	return c.perm.Request(ctx)
}

// EnsureChannel creates or updates ch.
func (c *Center) EnsureChannel(ctx context.Context, ch *model.NotificationChannel) error {
	return c.store.Do(ctx, func(db *storage.DB) error {
		return storage.NewChannelRepo(db).Upsert(ch)
	})
}

// Channel returns the channel with id, or nil.
func (c *Center) Channel(ctx context.Context, id string) (ch *model.NotificationChannel, err error) {
	err = c.store.Do(ctx, func(db *storage.DB) error {
		ch, err = storage.NewChannelRepo(db).Get(id)
		return err
	})
	return ch, err
}

// Schedule delivers n immediately. A notification naming a channel that was
// never created is rejected. Webhook failures are only an error when no sink
// received the notification.
func (c *Center) Schedule(ctx context.Context, n *model.Notification) error {
	var ch *model.NotificationChannel
	if n.ChannelID != "" {
		var err error
		ch, err = c.Channel(ctx, n.ChannelID)
		if err != nil {
			return err
		}
		if ch == nil {
			return fmt.Errorf("unknown notification channel %q", n.ChannelID)
		}
	}

	delivered := 0
	if c.banner != nil {
		if _, err := fmt.Fprintln(c.banner, RenderBanner(n, ch, terminalWidth(c.banner))); err != nil {
			logging.WarnContext(ctx, "notification banner failed", logging.KeyError, err)
		} else {
			delivered++
		}
	}

	sent, failures := c.sendWebhooks(ctx, n)
	delivered += sent

	logging.DebugContext(ctx, "notification scheduled",
		"type", string(n.Type),
		logging.KeyCount, delivered,
	)
	if delivered == 0 && len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// Forward delivers n to the enabled webhooks only, without a banner or a
// channel check. It fails only when every webhook failed.
func (c *Center) Forward(ctx context.Context, n *model.Notification) error {
	sent, failures := c.sendWebhooks(ctx, n)
	logging.DebugContext(ctx, "notification forwarded",
		"type", string(n.Type),
		logging.KeyCount, sent,
	)
	if sent == 0 && len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

func (c *Center) sendWebhooks(ctx context.Context, n *model.Notification) (sent int, failures []error) {
	if c.webhooks == nil {
		return 0, nil
	}
	for _, r := range c.webhooks.SendNotification(ctx, n) {
		if r.Success {
			sent++
			continue
		}
		failures = append(failures, fmt.Errorf("%s: %w", r.WebhookName, r.Error))
	}
	return sent, failures
}
