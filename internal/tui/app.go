package tui

import (
	"fmt"
	"strings"

	"shoplist-cli/internal/model"
	"shoplist-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const emptyListText = "No items to show for this filter."

func (m appModel) Init() tea.Cmd { return waitForUpdate(m.sess.Updates()) }

func (m appModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	sections := []string{
		m.viewHeader(width),
		m.viewTabs(),
		"",
	}
	if m.modal != modalNone {
		sections = append(sections, m.form.View(width, m.modal.title()))
	} else if len(m.visibleItems()) == 0 {
		sections = append(sections, styleMuted().Render(emptyListText))
	} else {
		sections = append(sections, m.list.View())
	}
	sections = append(sections, "", m.viewSnackbar(), m.viewMinibuffer(width), m.viewFooter(width))
	return strings.Join(sections, "\n")
}

func (m appModel) viewHeader(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Shopping List")
	remaining := styleChrome().Render(fmt.Sprintf("%d items remaining", m.counts().Active))
	left := title + "  " + remaining
	right := m.viewSyncStatus()
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return fitLine(left+strings.Repeat(" ", gap)+right, width)
}

func (m appModel) viewSyncStatus() string {
	switch m.sess.Status() {
	case session.StatusLive:
		return lipgloss.NewStyle().Foreground(colorDone).Render(glyphBullet() + " live")
	case session.StatusReconnecting:
		txt := glyphBullet() + " reconnecting"
		if err := m.sess.LastError(); err != nil {
			txt += ": " + err.Error()
		}
		return lipgloss.NewStyle().Foreground(colorWarn).Render(txt)
	default:
		return styleMuted().Render(glyphBullet() + " connecting")
	}
}

func (m appModel) viewTabs() string {
	c := m.counts()
	tabs := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		label := fmt.Sprintf("%s (%d)", f.Label(), c.Count(f))
		if f == m.filter {
			tabs = append(tabs, styleTabActive().Render(label))
		} else {
			tabs = append(tabs, styleTab().Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m appModel) viewSnackbar() string {
	if !m.snackVisible {
		return ""
	}
	return styleSnackbar().Render("Item deleted.  u: undo")
}

func (m appModel) viewMinibuffer(width int) string {
	if m.minibufferText == "" {
		return ""
	}
	return fitLine(lipgloss.NewStyle().Foreground(colorError).Render(m.minibufferText), width)
}

func (m appModel) viewFooter(width int) string {
	help := "a: add  e: edit  space: toggle  d: delete  u: undo  tab/1-3: filter  q: quit"
	if m.modal != modalNone {
		help = "tab: next field  enter: save  esc: cancel"
	}
	return styleMuted().Render(fitLine(help, width))
}
