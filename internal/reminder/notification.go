package reminder

import (
	"context"
	"sync"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// ChannelID is the notification channel punch reminders are posted on.
const ChannelID = "punch-reminder"

// PunchChannel returns the channel punch reminders need.
func PunchChannel() *model.NotificationChannel {
	return &model.NotificationChannel{
		ID:                   ChannelID,
		Name:                 Title,
		Importance:           model.ImportanceMax,
		VibrationPattern:     []int64{0, 250, 250, 250},
		LightColor:           "#7C3AED",
		Sound:                "default",
		LockscreenVisibility: model.VisibilityPublic,
	}
}

// Notifier is the system notification facility.
type Notifier interface {
	PermissionStatus(ctx context.Context) (model.PermissionStatus, error)
	RequestPermission(ctx context.Context) (model.PermissionStatus, error)
	EnsureChannel(ctx context.Context, ch *model.NotificationChannel) error
	Schedule(ctx context.Context, n *model.Notification) error
}

// Forwarder delivers a notification to remote sinks only. A Notifier that
// implements it still reaches them when local notifications are not allowed.
type Forwarder interface {
	Forward(ctx context.Context, n *model.Notification) error
}

// NotificationDispatcher is the non-interactive variant: it posts an
// immediate system notification.
type NotificationDispatcher struct {
	notifier Notifier

	mu           sync.Mutex
	channelReady bool
}

// NewNotificationDispatcher creates a notification dispatcher.
func NewNotificationDispatcher(n Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{notifier: n}
}

// permission reads the stored answer on every dispatch so a grant made later
// by another process is picked up. Only an undetermined answer is requested.
func (d *NotificationDispatcher) permission(ctx context.Context) (model.PermissionStatus, error) {
	status, err := d.notifier.PermissionStatus(ctx)
	if err != nil {
		return status, err
	}
	if status == model.PermissionUndetermined {
		return d.notifier.RequestPermission(ctx)
	}
	return status, nil
}

// ensureChannel creates the punch channel. Only success is remembered.
func (d *NotificationDispatcher) ensureChannel(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.channelReady {
		return nil
	}
	if err := d.notifier.EnsureChannel(ctx, PunchChannel()); err != nil {
		return err
	}
	d.channelReady = true
	return nil
}

// Dispatch posts the reminder on the punch channel. Without notification
// permission it only goes to remote sinks, when the notifier has any.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, t Type) {
	defer recoverDispatch(ctx, "notification", t)

	status, err := d.permission(ctx)
	if err != nil {
		logDispatchError(ctx, "notification", t, "permission", err)
		return
	}

	msg := Compose(t)
	n := model.NewNotification(t.NotificationType(), msg.Title, msg.Body).WithChannel(ChannelID)

	if !status.Granted() {
		logDispatchError(ctx, "notification", t, "permission", errs.NewPermissionDenied(errs.ScopeNotification))
		d.forward(ctx, t, n)
		return
	}

	if err := d.ensureChannel(ctx); err != nil {
		logDispatchError(ctx, "notification", t, "channel", err)
		return
	}
	if err := d.notifier.Schedule(ctx, n); err != nil {
		logDispatchError(ctx, "notification", t, "schedule", err)
		return
	}
	logging.InfoContext(ctx, "punch reminder posted", logging.KeyReminderType, string(t))
}

func (d *NotificationDispatcher) forward(ctx context.Context, t Type, n *model.Notification) {
	f, ok := d.notifier.(Forwarder)
	if !ok {
		return
	}
	if err := f.Forward(ctx, n); err != nil {
		logDispatchError(ctx, "notification", t, "forward", err)
		return
	}
	logging.InfoContext(ctx, "punch reminder forwarded", logging.KeyReminderType, string(t))
}
