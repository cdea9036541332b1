package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/parser"
	"github.com/carolin-violet/violet-reminder/internal/storage"
	"github.com/carolin-violet/violet-reminder/internal/validate"
)

// Todo command flags.
var (
	todoAddFlagDue      string
	todoRemoveFlagForce bool
)

// todoCmd represents the todo command.
var todoCmd = &cobra.Command{
	Use:     "todo [command]",
	Aliases: []string{"t", "todos"},
	Short:   "Manage the to-do list",
	Long: `Add, list and remove to-do items. Items are listed with overdue items
first, then by due date, then items without a due date.

Examples:
  violet todo add "submit expense report" due friday
  violet todo add call the landlord --due +3d
  violet todo list
  violet todo due 3f2a none
  violet todo rm 3f2a`,
	RunE: runTodoList,
}

var todoAddCmd = &cobra.Command{
	Use:   "add TITLE... [due WHEN]",
	Short: "Add a to-do item",
	Long: `Add a to-do item. Everything before "due" is the title. The due date
may be a calendar date (2026-03-05), an offset (+3d, +1w, +12h) or a day
name (friday, next monday). --due overrides an inline due date.

Examples:
  violet todo add buy milk
  violet todo add "pay rent" due 2026-03-05
  violet todo add renew passport by next monday
  violet todo add "book flights" --due +1w`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTodoAdd,
}

var todoListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List to-do items",
	RunE:    runTodoList,
}

var todoDueCmd = &cobra.Command{
	Use:   "due ID WHEN",
	Short: "Change or clear the due date of an item",
	Long: `Change the due date of an item. ID may be a unique prefix. Use "none"
to clear the due date.

Examples:
  violet todo due 3f2a friday
  violet todo due 3f2a none`,
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeTodoIDs,
	RunE:              runTodoDue,
}

var todoRemoveCmd = &cobra.Command{
	Use:               "rm ID",
	Aliases:           []string{"remove", "delete", "done"},
	Short:             "Remove a to-do item",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTodoIDs,
	RunE:              runTodoRemove,
}

func init() {
	todoAddCmd.Flags().StringVarP(&todoAddFlagDue, "due", "d", "",
		"Due date, overrides an inline due date")

	todoRemoveCmd.Flags().BoolVar(&todoRemoveFlagForce, "force", false,
		"Skip confirmation")

	todoCmd.AddCommand(todoAddCmd)
	todoCmd.AddCommand(todoListCmd)
	todoCmd.AddCommand(todoDueCmd)
	todoCmd.AddCommand(todoRemoveCmd)

	rootCmd.AddCommand(todoCmd)
}

// resolveDue turns a parsed due date into a time, nil when cleared.
func resolveDue(res parser.DueResult) (*time.Time, error) {
	if res.Error != nil {
		if pe, ok := res.Error.(*parser.TimeParseError); ok {
			return nil, pe.ToUserError()
		}
		return nil, res.Error
	}
	if res.Clear {
		return nil, nil
	}
	return &res.Time, nil
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	parsed := parser.ParseTodoArgs(args)
	parsed.Merge(todoAddFlagDue)
	title := validate.SanitizeTitle(parsed.Title)
	if err := validate.Title(title); err != nil {
		return err
	}

	now := time.Now()
	var due *time.Time
	if parsed.HasDue {
		var err error
		if due, err = resolveDue(parser.ParseDue(parsed.RawDue, now)); err != nil {
			return err
		}
	}

	var item *model.TodoItem
	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		item, err = storage.NewTodoRepo(db).Add(title, due, now)
		return err
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewTodoOutput(*item, now))
	}
	cli := ctx.CLIFormatter()
	cli.Success("已添加待办")
	cli.PrintTodo(item, now)
	return nil
}

func runTodoList(cmd *cobra.Command, args []string) error {
	var items []model.TodoItem
	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		items, err = storage.NewTodoRepo(db).Sorted()
		return err
	}); err != nil {
		return err
	}

	now := time.Now()
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTodos(items, now)
	}
	ctx.CLIFormatter().PrintTodos(items, now)
	return nil
}

func runTodoDue(cmd *cobra.Command, args []string) error {
	now := time.Now()
	due, err := resolveDue(parser.ParseDueArgs(args[1:], now))
	if err != nil {
		return err
	}

	var item *model.TodoItem
	if err := ctx.Session.Do(cmd.Context(), func(db *storage.DB) (err error) {
		item, err = storage.NewTodoRepo(db).SetDue(args[0], due)
		return err
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewTodoOutput(*item, now))
	}
	cli := ctx.CLIFormatter()
	if due == nil {
		cli.Success("已清除截止日期")
	} else {
		cli.Success("已更新截止日期")
	}
	cli.PrintTodo(item, now)
	return nil
}

func runTodoRemove(cmd *cobra.Command, args []string) error {
	c := cmd.Context()

	var item *model.TodoItem
	if err := ctx.Session.Do(c, func(db *storage.DB) (err error) {
		item, err = storage.NewTodoRepo(db).Find(args[0])
		return err
	}); err != nil {
		return err
	}

	// The prompt runs with the database released.
	if !todoRemoveFlagForce && ctx.Interactive {
		ok, err := ctx.Prompter().ConfirmAction(c, "删除待办", fmt.Sprintf("确定删除「%s」吗？", item.Title))
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("已取消")
			return nil
		}
	}

	if err := ctx.Session.Do(c, func(db *storage.DB) (err error) {
		item, err = storage.NewTodoRepo(db).Delete(item.ID)
		return err
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("removed", output.NewTodoOutput(*item, time.Now()))
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("已删除待办: %s", item.Title))
	return nil
}
