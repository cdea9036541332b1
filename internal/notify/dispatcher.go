package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Dispatcher sends notifications to all enabled webhooks. The database is
// only held while reading webhooks and recording results, never during
// delivery.
type Dispatcher struct {
	store      storage.Provider
	httpClient *HTTPClient
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(store storage.Provider, cfg config.HTTPConfig) *Dispatcher {
	return &Dispatcher{
		store:      store,
		httpClient: NewHTTPClient(cfg),
	}
}

// DispatchResult contains the result of dispatching to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Duration    time.Duration
	Error       error
}

// SendNotification sends n to all enabled webhooks concurrently.
func (d *Dispatcher) SendNotification(ctx context.Context, n *model.Notification) []DispatchResult {
	var webhooks []*model.Webhook
	err := d.store.Do(ctx, func(db *storage.DB) (err error) {
		webhooks, err = storage.NewWebhookRepo(db).ListEnabled()
		return err
	})
	if err != nil {
		return []DispatchResult{{
			WebhookName: "all",
			Error:       fmt.Errorf("failed to list webhooks: %w", err),
		}}
	}
	if len(webhooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(webhooks))
	for i, webhook := range webhooks {
		wg.Add(1)
		go func(idx int, wh *model.Webhook) {
			defer wg.Done()
			results[idx] = d.sendToWebhook(ctx, n, wh)
		}(i, webhook)
	}
	wg.Wait()

	d.recordResults(ctx, results)
	return results
}

func (d *Dispatcher) sendToWebhook(ctx context.Context, n *model.Notification, webhook *model.Webhook) DispatchResult {
	result := DispatchResult{WebhookName: webhook.Name}

	formatter := formatterFor(webhook)
	payload, err := formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		return result
	}

	sent := d.httpClient.Send(ctx, webhook.URL, formatter.ContentType(), payload)
	result.StatusCode = sent.StatusCode
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil

	if sent.Error != nil {
		logging.WarnContext(ctx, "webhook delivery failed",
			logging.KeyWebhook, webhook.Name,
			logging.KeyURL, webhook.URL,
			logging.KeyStatus, sent.StatusCode,
			logging.KeyError, sent.Error,
		)
	}
	return result
}

// recordResults stores last-used status. Failures here are not reported.
func (d *Dispatcher) recordResults(ctx context.Context, results []DispatchResult) {
	_ = d.store.Do(ctx, func(db *storage.DB) error {
		repo := storage.NewWebhookRepo(db)
		for _, r := range results {
			_ = repo.UpdateLastUsed(r.WebhookName, r.Error)
		}
		return nil
	})
}

// SendToSingle sends a notification to a single webhook by name.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, webhookName string) DispatchResult {
	var webhook *model.Webhook
	err := d.store.Do(ctx, func(db *storage.DB) (err error) {
		webhook, err = storage.NewWebhookRepo(db).Get(webhookName)
		return err
	})
	if err != nil {
		return DispatchResult{
			WebhookName: webhookName,
			Error:       fmt.Errorf("webhook not found: %w", err),
		}
	}

	result := d.sendToWebhook(ctx, n, webhook)
	d.recordResults(ctx, []DispatchResult{result})
	return result
}

// TestWebhook sends a test notification to a specific webhook.
func (d *Dispatcher) TestWebhook(ctx context.Context, webhookName string) DispatchResult {
	n := model.NewNotification(
		model.NotifyTest,
		"violet test",
		"This is a test notification from violet. Punch reminders will arrive here.",
	).WithField("Webhook", webhookName).WithField("Time", time.Now().Format("15:04"))

	return d.SendToSingle(ctx, n, webhookName)
}

// CountEnabledWebhooks returns the number of enabled webhooks.
func (d *Dispatcher) CountEnabledWebhooks(ctx context.Context) int {
	var n int
	_ = d.store.Do(ctx, func(db *storage.DB) error {
		webhooks, err := storage.NewWebhookRepo(db).ListEnabled()
		n = len(webhooks)
		return err
	})
	return n
}
