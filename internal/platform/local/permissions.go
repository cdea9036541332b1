package local

import (
	"context"
	"time"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Asker puts a yes/no question to the user.
type Asker interface {
	Ask(ctx context.Context, question string) (bool, error)
}

// ScopePermission is one stored permission. Once answered the answer is
// kept until reset, so the user is asked at most once.
type ScopePermission struct {
	store    storage.Provider
	scope    errs.PermissionScope
	question string
	asker    Asker
	now      func() time.Time
}

// Status returns the stored answer without asking.
func (p *ScopePermission) Status(ctx context.Context) (status model.PermissionStatus, err error) {
	err = p.store.Do(ctx, func(db *storage.DB) error {
		status, err = storage.NewGrantRepo(db).Status(string(p.scope))
		return err
	})
	return status, err
}

// Request returns the stored answer, asking first when there is none. With
// no asker an undetermined permission reads as denied and is not stored.
func (p *ScopePermission) Request(ctx context.Context) (model.PermissionStatus, error) {
	status, err := p.Status(ctx)
	if err != nil || status != model.PermissionUndetermined {
		return status, err
	}
	if p.asker == nil {
		logging.DebugContext(ctx, "permission undetermined, nobody to ask", logging.KeyScope, string(p.scope))
		return model.PermissionDenied, nil
	}

	// The database is not held while the user answers.
	ok, err := p.asker.Ask(ctx, p.question)
	if err != nil {
		return model.PermissionUndetermined, err
	}
	status = model.PermissionDenied
	if ok {
		status = model.PermissionGranted
	}
	err = p.store.Do(ctx, func(db *storage.DB) error {
		return storage.NewGrantRepo(db).Record(string(p.scope), status, p.now())
	})
	if err != nil {
		return status, err
	}
	logging.InfoContext(ctx, "permission recorded",
		logging.KeyScope, string(p.scope),
		logging.KeyStatus, string(status),
	)
	return status, nil
}

// Permissions holds the location and notification permissions.
type Permissions struct {
	store        storage.Provider
	foreground   *ScopePermission
	background   *ScopePermission
	notification *ScopePermission
}

// NewPermissions creates the permission set. asker may be nil, in which
// case only stored answers count.
func NewPermissions(store storage.Provider, asker Asker) *Permissions {
	scope := func(s errs.PermissionScope, q string) *ScopePermission {
		return &ScopePermission{store: store, scope: s, question: q, asker: asker, now: time.Now}
	}
	return &Permissions{
		store:        store,
		foreground:   scope(errs.ScopeForeground, "允许 violet 使用你的位置？"),
		background:   scope(errs.ScopeBackground, "允许 violet 在后台使用你的位置？"),
		notification: scope(errs.ScopeNotification, "允许 violet 发送通知？"),
	}
}

// RequestForeground requests foreground location permission.
func (p *Permissions) RequestForeground(ctx context.Context) (model.PermissionStatus, error) {
	return p.foreground.Request(ctx)
}

// RequestBackground requests background location permission.
func (p *Permissions) RequestBackground(ctx context.Context) (model.PermissionStatus, error) {
	return p.background.Request(ctx)
}

// Notification returns the notification permission.
func (p *Permissions) Notification() *ScopePermission {
	return p.notification
}

// Grants lists every stored answer.
func (p *Permissions) Grants(ctx context.Context) (grants []*model.PermissionGrant, err error) {
	err = p.store.Do(ctx, func(db *storage.DB) error {
		grants, err = storage.NewGrantRepo(db).List()
		return err
	})
	return grants, err
}

// Reset forgets every stored answer.
func (p *Permissions) Reset(ctx context.Context) error {
	return p.store.Do(ctx, func(db *storage.DB) error {
		return storage.NewGrantRepo(db).Reset()
	})
}
