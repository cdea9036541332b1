package storage

import (
	"time"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// WebhookRepo provides operations for Webhook entities.
type WebhookRepo struct {
	db *DB
}

// NewWebhookRepo creates a new webhook repository.
func NewWebhookRepo(db *DB) *WebhookRepo {
	return &WebhookRepo{db: db}
}

// Create stores a new webhook, filling in its key and creation time.
func (r *WebhookRepo) Create(webhook *model.Webhook) error {
	if webhook.Key == "" {
		webhook.Key = model.GenerateWebhookKey(webhook.Name)
	}
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = time.Now()
	}
	return r.db.Set(webhook)
}

// Get retrieves a webhook by name.
func (r *WebhookRepo) Get(name string) (*model.Webhook, error) {
	webhook := &model.Webhook{}
	err := r.db.Get(model.GenerateWebhookKey(name), webhook)
	if IsErrKeyNotFound(err) {
		return nil, errs.ErrWebhookNotFound
	}
	if err != nil {
		return nil, err
	}
	return webhook, nil
}

// List retrieves all webhooks.
func (r *WebhookRepo) List() ([]*model.Webhook, error) {
	return GetAllByPrefix(r.db, model.PrefixWebhook+":", func() *model.Webhook {
		return &model.Webhook{}
	})
}

// ListEnabled retrieves all enabled webhooks.
func (r *WebhookRepo) ListEnabled() ([]*model.Webhook, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var enabled []*model.Webhook
	for _, wh := range all {
		if wh.Enabled {
			enabled = append(enabled, wh)
		}
	}
	return enabled, nil
}

// Delete removes a webhook by name.
func (r *WebhookRepo) Delete(name string) error {
	ok, err := r.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrWebhookNotFound
	}
	return r.db.Delete(model.GenerateWebhookKey(name))
}

// SetEnabled enables or disables a webhook.
func (r *WebhookRepo) SetEnabled(name string, enabled bool) error {
	webhook, err := r.Get(name)
	if err != nil {
		return err
	}
	webhook.Enabled = enabled
	return r.db.Set(webhook)
}

// UpdateLastUsed records a delivery attempt and its error, if any.
func (r *WebhookRepo) UpdateLastUsed(name string, lastErr error) error {
	webhook, err := r.Get(name)
	if err != nil {
		return err
	}

	webhook.LastUsed = time.Now()
	webhook.LastError = ""
	if lastErr != nil {
		webhook.LastError = lastErr.Error()
	}
	return r.db.Set(webhook)
}

// Exists checks if a webhook with the given name exists.
func (r *WebhookRepo) Exists(name string) (bool, error) {
	return r.db.Exists(model.GenerateWebhookKey(name))
}
