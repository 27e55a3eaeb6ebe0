package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// rowDelegate renders category headings and item rows one line each.
type rowDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newRowDelegate() rowDelegate {
	return rowDelegate{
		normal: lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
	}
}

func (d rowDelegate) Height() int  { return 1 }
func (d rowDelegate) Spacing() int { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		fmt.Fprint(w, "")
		return
	}

	switch it := item.(type) {
	case headerItem:
		fmt.Fprint(w, fitLine(styleCategory().Render(it.Title()), contentW))
	case rowItem:
		name := it.Title()
		meta := styleMuted().Render(it.Meta())
		if it.item.Purchased {
			name = stylePurchased().Render(name)
		}
		line := "  " + name
		// Right-align the meta column when it fits.
		gap := contentW - xansi.StringWidth(line) - xansi.StringWidth(meta) - 1
		if gap >= 2 {
			line += strings.Repeat(" ", gap) + meta + " "
		} else {
			line += "  " + meta
		}
		line = fitLine(line, contentW)
		if index == m.Index() {
			line = d.selected.Render(xansi.Strip(line))
		} else {
			line = d.normal.Render(line)
		}
		fmt.Fprint(w, line)
	default:
		fmt.Fprint(w, fitLine(fmt.Sprint(item), contentW))
	}
}
