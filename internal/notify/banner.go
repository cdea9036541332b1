package notify

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

const (
	defaultBannerWidth = 48
	maxBannerWidth     = 72
)

var bannerMuted = lipgloss.Color("#6B7280")

// RenderBanner draws n as a bordered box no wider than width. The border
// takes the channel's light color.
func RenderBanner(n *model.Notification, ch *model.NotificationChannel, width int) string {
	accent := lipgloss.Color(colorToHex(colorOf(n)))
	if ch != nil && ch.LightColor != "" {
		accent = lipgloss.Color(ch.LightColor)
	}

	if width <= 0 {
		width = defaultBannerWidth
	}
	if width > maxBannerWidth {
		width = maxBannerWidth
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(n.Title)
	body := lipgloss.NewStyle().Render(n.Message)

	meta := []string{n.Timestamp.Format("15:04")}
	if ch != nil && ch.Name != "" {
		meta = append(meta, ch.Name)
	}
	for _, key := range sortedFields(n.Fields) {
		meta = append(meta, key+": "+n.Fields[key])
	}
	footerLine := lipgloss.NewStyle().Foreground(bannerMuted).Render(strings.Join(meta, " · "))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width - 2)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, footerLine))
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultBannerWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return defaultBannerWidth
	}
	return width
}
