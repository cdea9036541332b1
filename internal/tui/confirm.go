package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a modal yes/no dialog. With no cancel label it has a
// single acknowledge button, like an alert.
type ConfirmModel struct {
	Title       string
	Message     string
	OKLabel     string
	CancelLabel string

	focusOK  bool
	answered bool
	ok       bool
}

// NewConfirmModel creates a dialog focused on the acknowledge button.
func NewConfirmModel(title, message, okLabel, cancelLabel string) *ConfirmModel {
	return &ConfirmModel{
		Title:       title,
		Message:     message,
		OKLabel:     okLabel,
		CancelLabel: cancelLabel,
		focusOK:     true,
	}
}

// Init implements tea.Model.
func (m *ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "enter", " ", "space":
		return m.answer(m.focusOK || m.CancelLabel == "")
	case "y":
		return m.answer(true)
	case "n", "esc", "ctrl+c":
		return m.answer(m.CancelLabel == "")
	case "left", "right", "tab", "shift+tab", "h", "l":
		if m.CancelLabel != "" {
			m.focusOK = !m.focusOK
		}
	}
	return m, nil
}

func (m *ConfirmModel) answer(ok bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.ok = ok
	return m, tea.Quit
}

// Answered reports whether the dialog was closed by a key press.
func (m *ConfirmModel) Answered() bool {
	return m.answered
}

// OK reports whether the acknowledge button was chosen.
func (m *ConfirmModel) OK() bool {
	return m.ok
}

// View renders the dialog.
func (m *ConfirmModel) View() string {
	if m.answered {
		return ""
	}
	var b strings.Builder
	if m.Title != "" {
		b.WriteString(StyleTitle.Render(m.Title))
		b.WriteString("\n")
	}
	b.WriteString(m.Message)
	b.WriteString("\n\n")

	ok := StyleButton
	cancel := StyleButtonFocused
	if m.focusOK {
		ok, cancel = StyleButtonFocused, StyleButton
	}
	b.WriteString(ok.Render(m.OKLabel))
	if m.CancelLabel != "" {
		b.WriteString("  ")
		b.WriteString(cancel.Render(m.CancelLabel))
	}
	return StyleDialog.Render(b.String()) + "\n"
}

// AcknowledgeLabel is the only button of a reminder alert.
const AcknowledgeLabel = "确认"

// Prompter shows dialogs on a terminal. It serves as the reminder alert
// prompt and as the permission asker.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompterWith creates a prompter on the given streams.
func NewPrompterWith(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Confirm shows an alert with a single 确认 button and reports whether it
// was acknowledged. It returns when the user answers or ctx ends.
func (p *Prompter) Confirm(ctx context.Context, title, message string) (bool, error) {
	return p.run(ctx, NewConfirmModel(title, message, AcknowledgeLabel, ""))
}

// Ask shows a yes/no question.
func (p *Prompter) Ask(ctx context.Context, question string) (bool, error) {
	return p.run(ctx, NewConfirmModel("", question, "允许", "不允许"))
}

// ConfirmAction asks before a destructive action.
func (p *Prompter) ConfirmAction(ctx context.Context, title, message string) (bool, error) {
	return p.run(ctx, NewConfirmModel(title, message, "确定", "取消"))
}

func (p *Prompter) run(ctx context.Context, m *ConfirmModel) (bool, error) {
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := prog.Run()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return false, err
	}
	cm, ok := final.(*ConfirmModel)
	if !ok || !cm.Answered() {
		return false, nil
	}
	return cm.OK(), nil
}
