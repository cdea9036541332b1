package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Snapshot is what the dashboard shows on each refresh.
type Snapshot struct {
	Active bool
	Region *model.GeofenceRegion
	Source string
	Todos  []model.TodoItem
}

// Loader fetches a fresh snapshot. It must not keep the database open
// between calls.
type Loader func(ctx context.Context) (*Snapshot, error)

// tickMsg is sent when the refresh timer fires.
type tickMsg time.Time

// snapshotMsg carries a loaded snapshot or the error loading it.
type snapshotMsg struct {
	snap *Snapshot
	err  error
}

// DashboardModel is the bubbletea model for the dashboard.
type DashboardModel struct {
	load Loader
	ctx  context.Context
	now  func() time.Time

	snap *Snapshot

	// UI state
	width      int
	height     int
	err        error
	message    string
	messageExp time.Time

	refreshInterval time.Duration
	maxTodos        int
}

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	Load            Loader
	RefreshInterval time.Duration
	MaxTodos        int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(ctx context.Context, config DashboardConfig) *DashboardModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = 5 * time.Second
	}
	if config.MaxTodos == 0 {
		config.MaxTodos = 8
	}
	return &DashboardModel{
		load:            config.Load,
		ctx:             ctx,
		now:             time.Now,
		refreshInterval: config.RefreshInterval,
		maxTodos:        config.MaxTodos,
	}
}

// Init loads the first snapshot and starts the timer.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.loadCmd())
}

// Update handles messages and updates the model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.setMessage("已刷新", time.Second)
			return m, m.loadCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, tea.Batch(m.tickCmd(), m.loadCmd())

	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.snap = msg.snap
		m.err = nil
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader()}
	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	if m.snap != nil {
		geo := &GeofenceComponent{Active: m.snap.Active, Region: m.snap.Region, Source: m.snap.Source, Width: m.width}
		todos := &TodoComponent{Items: m.snap.Todos, Now: m.now(), Width: m.width, MaxItems: m.maxTodos}
		sections = append(sections, geo.View(), todos.View())
	}

	sections = append(sections, HelpBar([2]string{"r", "refresh"}, [2]string{"q", "quit"}))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *DashboardModel) renderHeader() string {
	title := StyleTitle.Render("violet")
	now := StyleSubtitle.Render(m.now().Format("Mon Jan 2, 15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", now) + "\n"
}

func (m *DashboardModel) setMessage(msg string, d time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(d)
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.load(m.ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// RunDashboard runs the dashboard until the user quits.
func RunDashboard(ctx context.Context, config DashboardConfig) error {
	p := tea.NewProgram(NewDashboardModel(ctx, config), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
