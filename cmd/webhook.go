package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/notify"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/storage"
	"github.com/carolin-violet/violet-reminder/internal/validate"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookRemoveFlagForce bool
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"w", "wh", "hook"},
	Short:   "Configure notification webhooks",
	Long: `Configure webhooks for Discord, Slack or custom endpoints.

Every punch reminder and to-do digest is also posted to each enabled
webhook.

Examples:
  violet webhook add team-slack https://hooks.slack.com/services/...
  violet webhook list
  violet webhook test team-slack
  violet webhook disable team-slack
  violet webhook remove team-slack`,
	RunE: runWebhookList,
}

var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new webhook",
	Long: `Add a webhook for receiving notifications.

The webhook type is detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Generic: Any other URL

Examples:
  violet webhook add discord https://discord.com/api/webhooks/123/abc
  violet webhook add my-hook https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all webhooks",
	RunE:  runWebhookList,
}

var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Send a test notification",
	Long: `Send a test notification to verify webhook configuration.

Examples:
  violet webhook test team-slack
  violet webhook test --all`,
	ValidArgsFunction: completeWebhookArgs,
	RunE:              runWebhookTest,
}

var webhookRemoveCmd = &cobra.Command{
	Use:               "remove NAME",
	Aliases:           []string{"rm", "delete"},
	Short:             "Remove a webhook",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeWebhookArgs,
	RunE:              runWebhookRemove,
}

var webhookEnableCmd = &cobra.Command{
	Use:               "enable NAME",
	Short:             "Enable a webhook",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeWebhookArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(cmd, args[0], true)
	},
}

var webhookDisableCmd = &cobra.Command{
	Use:               "disable NAME",
	Short:             "Disable a webhook",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeWebhookArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(cmd, args[0], false)
	},
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: discord, slack, generic (detected from URL if not given)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Payload template for generic webhooks")

	webhookRemoveCmd.Flags().BoolVar(&webhookRemoveFlagForce, "force", false,
		"Skip confirmation")

	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)

	rootCmd.AddCommand(webhookCmd)
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name, webhookURL := args[0], args[1]

	if err := validate.WebhookName(name); err != nil {
		return err
	}
	if err := validate.URL(webhookURL); err != nil {
		return err
	}

	webhookType := webhookAddFlagType
	if webhookType == "" {
		webhookType = model.DetectWebhookType(webhookURL)
	}
	if !model.IsValidWebhookType(webhookType) {
		return fmt.Errorf("invalid webhook type %q: must be one of %s",
			webhookType, strings.Join(model.ValidWebhookTypes(), ", "))
	}

	webhook := model.NewWebhook(name, webhookType, webhookURL)
	webhook.Template = webhookAddFlagTemplate

	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) error {
		repo := storage.NewWebhookRepo(db)
		exists, err := repo.Exists(name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("webhook %q already exists", name)
		}
		return repo.Create(webhook)
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("added", output.NewWebhookOutput(webhook))
	}

	out := output.NewWebhookOutput(webhook)
	cli := ctx.CLIFormatter()
	cli.Success("Added webhook: " + name)
	cli.PrintKeyValue("Type", out.Type)
	cli.PrintKeyValue("URL", out.URL)
	cli.Muted("Test with: violet webhook test " + name)
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	var webhooks []*model.Webhook
	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		webhooks, err = storage.NewWebhookRepo(db).List()
		return err
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		outputs := make([]*output.WebhookOutput, len(webhooks))
		for i, wh := range webhooks {
			outputs[i] = output.NewWebhookOutput(wh)
		}
		return ctx.Formatter.PrintJSON(map[string]any{
			"webhooks": outputs,
			"count":    len(webhooks),
		})
	}

	cli := ctx.CLIFormatter()
	if len(webhooks) == 0 {
		cli.Muted("No webhooks configured. Add one with: violet webhook add NAME URL")
		return nil
	}

	rows := make([]output.TableRow, len(webhooks))
	for i, wh := range webhooks {
		status := "enabled"
		if !wh.Enabled {
			status = "disabled"
		}
		lastUsed := "never"
		if !wh.LastUsed.IsZero() {
			lastUsed = formatTimeAgo(wh.LastUsed)
		}
		if wh.LastError != "" {
			lastUsed += " (failed)"
		}
		rows[i] = output.TableRow{Columns: []string{wh.Name, wh.Type, status, lastUsed}}
	}
	cli.PrintTable([]string{"NAME", "TYPE", "STATUS", "LAST USED"}, rows)
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	c, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	dispatcher := ctx.Webhooks()

	var names []string
	switch {
	case webhookTestFlagAll:
		var webhooks []*model.Webhook
		if err := ctx.Session.Do(c, func(db *storage.DB) (err error) {
			webhooks, err = storage.NewWebhookRepo(db).ListEnabled()
			return err
		}); err != nil {
			return err
		}
		if len(webhooks) == 0 {
			return fmt.Errorf("no enabled webhooks to test")
		}
		for _, wh := range webhooks {
			names = append(names, wh.Name)
		}
	case len(args) == 1:
		names = args
	default:
		return fmt.Errorf("webhook name required (or use --all)")
	}

	results := make([]notify.DispatchResult, len(names))
	for i, name := range names {
		results[i] = dispatcher.TestWebhook(c, name)
	}

	if ctx.IsJSON() {
		outputs := make([]map[string]any, len(results))
		for i, r := range results {
			outputs[i] = map[string]any{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			}
		}
		return ctx.Formatter.PrintJSON(map[string]any{"results": outputs})
	}

	cli := ctx.CLIFormatter()
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %dms", r.WebhookName, r.Duration.Milliseconds()))
		} else {
			cli.Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
		}
	}
	return nil
}

func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	c := cmd.Context()

	if err := ctx.Session.Do(c, func(db *storage.DB) error {
		_, err := storage.NewWebhookRepo(db).Get(name)
		return err
	}); err != nil {
		return err
	}

	if !webhookRemoveFlagForce && ctx.Interactive {
		ok, err := ctx.Prompter().ConfirmAction(c, "Remove webhook", fmt.Sprintf("Remove webhook %q?", name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("Cancelled.")
			return nil
		}
	}

	if err := ctx.Session.Do(c, func(db *storage.DB) error {
		return storage.NewWebhookRepo(db).Delete(name)
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("removed", map[string]any{"webhook": name})
	}
	ctx.CLIFormatter().Success("Removed webhook: " + name)
	return nil
}

func setWebhookEnabled(cmd *cobra.Command, name string, enabled bool) error {
	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) error {
		return storage.NewWebhookRepo(db).SetEnabled(name, enabled)
	}); err != nil {
		return err
	}

	status := "disabled"
	if enabled {
		status = "enabled"
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus(status, map[string]any{"webhook": name})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Webhook %s %s", name, status))
	return nil
}

// formatTimeAgo formats a time as a human-readable relative time.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
}

// errorString returns the error message or empty string if nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
