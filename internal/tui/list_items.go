package tui

import (
	"fmt"

	"shoplist-cli/internal/listview"
	"shoplist-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

// headerItem is a category heading row. It is never selectable.
type headerItem struct {
	category string
	count    int
}

func (h headerItem) FilterValue() string { return h.category }

func (h headerItem) Title() string {
	return fmt.Sprintf("%s (%d)", h.category, h.count)
}

type rowItem struct {
	item model.Item
}

func (r rowItem) FilterValue() string { return r.item.Name }

func (r rowItem) Title() string {
	return fmt.Sprintf("%s %s %s", glyphIcon(r.item.Icon), glyphCheckbox(r.item.Purchased), r.item.Name)
}

func (r rowItem) Meta() string {
	return fmt.Sprintf("Qty: %d | Category: %s", r.item.Quantity, r.item.CategoryOrDefault())
}

// buildRows flattens groups into list rows: one heading per bucket followed
// by its items.
func buildRows(groups []listview.Group) []list.Item {
	out := make([]list.Item, 0)
	for _, g := range groups {
		out = append(out, headerItem{category: g.Category, count: len(g.Items)})
		for _, it := range g.Items {
			out = append(out, rowItem{item: it})
		}
	}
	return out
}

// rowIndex returns the list index of the item with id, or -1.
func rowIndex(rows []list.Item, id string) int {
	for i, r := range rows {
		if ri, ok := r.(rowItem); ok && ri.item.ID == id {
			return i
		}
	}
	return -1
}

// firstRow returns the first selectable index at or after from, searching
// backwards when there is none. It returns -1 for a list without items.
func firstRow(rows []list.Item, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(rows); i++ {
		if _, ok := rows[i].(rowItem); ok {
			return i
		}
	}
	for i := from - 1; i >= 0; i-- {
		if i < len(rows) {
			if _, ok := rows[i].(rowItem); ok {
				return i
			}
		}
	}
	return -1
}

// lastRow is firstRow searching backwards first.
func lastRow(rows []list.Item, from int) int {
	if from >= len(rows) {
		from = len(rows) - 1
	}
	for i := from; i >= 0; i-- {
		if _, ok := rows[i].(rowItem); ok {
			return i
		}
	}
	return firstRow(rows, from+1)
}

func newList(items []list.Item) list.Model {
	l := list.New(items, newRowDelegate(), 0, 0)
	// Header, tabs and footer are ours, so keep list chrome minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetShowFilter(false)
	// Completion filtering uses tabs; the fuzzy filter would fight them for keys.
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.InfiniteScrolling = false

	// "d" and "u" are delete/undo here, not page keys.
	l.KeyMap.NextPage.SetKeys("right", "pgdown", "ctrl+f")
	l.KeyMap.PrevPage.SetKeys("left", "pgup", "ctrl+b")

	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	cursorUpKeys = append(cursorUpKeys, "ctrl+p")
	l.KeyMap.CursorUp.SetKeys(cursorUpKeys...)

	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	cursorDownKeys = append(cursorDownKeys, "ctrl+n")
	l.KeyMap.CursorDown.SetKeys(cursorDownKeys...)
	return l
}
