package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/parser"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// digestLimit caps the items listed in one digest message.
const digestLimit = 5

// Notifier schedules a notification.
type Notifier interface {
	Schedule(ctx context.Context, n *model.Notification) error
}

// DigestChecker posts a summary of overdue and soon-due todos.
type DigestChecker struct {
	store    storage.Provider
	notifier Notifier
	now      func() time.Time
}

// NewDigestChecker creates a digest checker.
func NewDigestChecker(store storage.Provider, n Notifier) *DigestChecker {
	return &DigestChecker{store: store, notifier: n, now: time.Now}
}

// Check sends one digest when any todo is overdue or due within the warning
// window. Nothing is sent otherwise.
func (c *DigestChecker) Check(ctx context.Context) error {
	var items []model.TodoItem
	err := c.store.Do(ctx, func(db *storage.DB) error {
		var err error
		items, err = storage.NewTodoRepo(db).Sorted()
		return err
	})
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}

	n := c.Build(items)
	if n == nil {
		logging.DebugContext(ctx, "no todos due")
		return nil
	}
	return c.notifier.Schedule(ctx, n)
}

// Build returns the digest notification for items, or nil when none is
// overdue or due soon. items are expected in display order.
func (c *DigestChecker) Build(items []model.TodoItem) *model.Notification {
	now := c.now()

	var overdue, soon []model.TodoItem
	for _, item := range items {
		switch item.DueStatusAt(now) {
		case model.DueOverdue:
			overdue = append(overdue, item)
		case model.DueWarning:
			soon = append(soon, item)
		}
	}
	if len(overdue) == 0 && len(soon) == 0 {
		return nil
	}

	listed := append(append([]model.TodoItem{}, overdue...), soon...)
	var lines []string
	for i, item := range listed {
		if i == digestLimit {
			lines = append(lines, fmt.Sprintf("还有 %d 条", len(listed)-digestLimit))
			break
		}
		due, _ := item.Due()
		lines = append(lines, fmt.Sprintf("%s (%s)", item.Title, parser.FormatDueIn(due, now)))
	}

	title := fmt.Sprintf("%d 条待办即将到期", len(soon))
	if len(overdue) > 0 {
		title = fmt.Sprintf("%d 条待办已逾期", len(overdue))
	}

	return model.NewNotification(model.NotifyTodoDigest, title, strings.Join(lines, "\n")).
		WithField("Overdue", fmt.Sprint(len(overdue))).
		WithField("Due soon", fmt.Sprint(len(soon)))
}
