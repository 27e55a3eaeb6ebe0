package tui

import (
	"context"
	"log/slog"
	"time"

	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/listview"
	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"
	"shoplist-cli/internal/session"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultUndoWindow    = 5 * time.Second
	minibufferClearDelay = 4 * time.Second
)

type appModel struct {
	sess *session.Session
	log  *slog.Logger
	ctx  context.Context

	undoWindow time.Duration

	width  int
	height int

	filter model.Filter
	list   list.Model

	modal modalKind
	form  itemForm

	snackVisible bool
	snackSeq     int

	minibufferText  string
	minibufferSetAt time.Time
	minibufferSeq   int
}

func newAppModel(ctx context.Context, sess *session.Session, opts Options) appModel {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	undo := opts.UndoWindow
	if undo <= 0 {
		undo = defaultUndoWindow
	}
	m := appModel{
		sess:       sess,
		log:        log,
		ctx:        ctx,
		undoWindow: undo,
		filter:     model.FilterAll,
		list:       newList(nil),
	}
	m.refreshRows()
	return m
}

// visibleItems is the filtered projection of the session's items.
func (m appModel) visibleItems() []model.Item {
	return listview.FilterItems(m.sess.Items(), m.filter)
}

func (m appModel) counts() listview.Counts {
	return listview.CountItems(m.sess.Items())
}

// refreshRows rebuilds the list from the session, keeping the selected item
// selected when it is still visible.
func (m *appModel) refreshRows() {
	selectedID := ""
	if it, ok := m.selectedItem(); ok {
		selectedID = it.ID
	}
	prevIdx := m.list.Index()

	rows := buildRows(listview.GroupItems(m.visibleItems()))
	m.list.SetItems(rows)

	idx := -1
	if selectedID != "" {
		idx = rowIndex(rows, selectedID)
	}
	if idx < 0 {
		idx = firstRow(rows, prevIdx)
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

func (m appModel) selectedItem() (model.Item, bool) {
	if r, ok := m.list.SelectedItem().(rowItem); ok {
		return r.item, true
	}
	return model.Item{}, false
}

func (m *appModel) setFilter(f model.Filter) {
	if m.filter == f {
		return
	}
	m.filter = f
	m.list.ResetSelected()
	m.refreshRows()
}

func (m *appModel) cycleFilter() {
	for i, f := range model.Filters {
		if f == m.filter {
			m.setFilter(model.Filters[(i+1)%len(model.Filters)])
			return
		}
	}
	m.setFilter(model.FilterAll)
}

func (m *appModel) resizeList() {
	// Header, tabs, snackbar, minibuffer and footer.
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	w := m.width
	if w < 20 {
		w = 20
	}
	m.list.SetSize(w, h)
}

// showMinibuffer shows text and returns the command that clears it later.
func (m *appModel) showMinibuffer(text string) tea.Cmd {
	m.minibufferText = text
	m.minibufferSetAt = time.Now()
	m.minibufferSeq++
	seq := m.minibufferSeq
	return tea.Tick(minibufferClearDelay, func(time.Time) tea.Msg { return minibufferDoneMsg{seq: seq} })
}

func (m *appModel) showSnackbar() tea.Cmd {
	m.snackVisible = true
	m.snackSeq++
	seq := m.snackSeq
	return tea.Tick(m.undoWindow, func(time.Time) tea.Msg { return snackDoneMsg{seq: seq} })
}

// waitForUpdate blocks on the subscription until it yields or closes.
func waitForUpdate(ch <-chan docstore.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		return updateMsg{update: u, ok: ok}
	}
}

// writeCmd issues w off the loop and reports back with a writeDoneMsg.
func (m appModel) writeCmd(w mutate.Write) tea.Cmd {
	coll := m.sess.Collection()
	ctx := m.ctx
	return func() tea.Msg {
		id, err := mutate.Exec(ctx, coll, w)
		return writeDoneMsg{op: w.Op, id: id, err: err}
	}
}
