package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// GeofenceComponent displays whether punch reminders are on and where.
type GeofenceComponent struct {
	Active bool
	Region *model.GeofenceRegion
	Source string
	Width  int
}

// View renders the geofence component.
func (gc *GeofenceComponent) View() string {
	var content strings.Builder

	box := StyleBox
	if gc.Active {
		content.WriteString(StyleActive.Render("● 打卡提醒已开启"))
		box = StyleActiveBox
	} else {
		content.WriteString(StyleInactive.Render("打卡提醒未开启"))
	}
	content.WriteString("\n\n")

	if gc.Region != nil {
		content.WriteString(fmt.Sprintf("%.6f, %.6f", gc.Region.Longitude, gc.Region.Latitude))
		content.WriteString("\n")
		content.WriteString(StyleSubtitle.Render(fmt.Sprintf("半径 %.0f 米 · %s", gc.Region.Radius, gc.Source)))
	}

	return box.Width(boxWidth(gc.Width)).Render(content.String())
}

// TodoComponent displays the sorted to-do list with due highlighting.
type TodoComponent struct {
	Items    []model.TodoItem
	Now      time.Time
	Width    int
	MaxItems int
}

// View renders the todo component.
func (tc *TodoComponent) View() string {
	var content strings.Builder
	content.WriteString(StyleTitle.Render("待办"))

	if len(tc.Items) == 0 {
		content.WriteString("\n")
		content.WriteString(StyleSubtitle.Render("暂无待办"))
		return StyleBox.Width(boxWidth(tc.Width)).Render(content.String())
	}

	items := tc.Items
	if tc.MaxItems > 0 && len(items) > tc.MaxItems {
		items = items[:tc.MaxItems]
	}
	for i, item := range items {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(item.Title)
		if label := item.DueLabel(tc.Now.Location()); label != "" {
			content.WriteString("  ")
			content.WriteString(DueStyle(item.DueStatusAt(tc.Now)).Render(label))
		}
	}
	if rest := len(tc.Items) - len(items); rest > 0 {
		content.WriteString("\n\n")
		content.WriteString(StyleSubtitle.Render(fmt.Sprintf("还有 %d 条", rest)))
	}

	return StyleBox.Width(boxWidth(tc.Width)).Render(content.String())
}

func boxWidth(width int) int {
	if width < 24 {
		return 20
	}
	return width - 4
}

// HelpBar renders key bindings as "key desc" pairs.
func HelpBar(bindings ...[2]string) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, StyleHelpKey.Render(b[0])+" "+StyleHelpDesc.Render(b[1]))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
