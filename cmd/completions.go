package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/runtime"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// completionContext returns the shared context, creating a short-lived one
// when the completion runs before PersistentPreRunE.
func completionContext() (*runtime.Context, func()) {
	if ctx != nil {
		return ctx, func() {}
	}
	c := runtime.New(runtime.DefaultOptions())
	return c, func() { c.Close() }
}

// completeTodoIDs completes the first argument with todo id prefixes.
func completeTodoIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, done := completionContext()
	defer done()

	var items []model.TodoItem
	if err := c.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		items, err = storage.NewTodoRepo(db).Sorted()
		return err
	}); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, it := range items {
		id := it.ID
		if i := strings.IndexByte(id, '-'); i > 0 {
			id = id[:i]
		}
		if strings.HasPrefix(id, toComplete) {
			completions = append(completions, id+"\t"+it.Title)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeWebhookArgs completes the first argument with webhook names.
func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, done := completionContext()
	defer done()

	var webhooks []*model.Webhook
	if err := c.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		webhooks, err = storage.NewWebhookRepo(db).List()
		return err
	}); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, wh := range webhooks {
		if strings.HasPrefix(wh.Name, toComplete) {
			names = append(names, wh.Name+"\t"+wh.Type)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
