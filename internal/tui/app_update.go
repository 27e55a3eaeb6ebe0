package tui

import (
	"fmt"

	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil

	case updateMsg:
		if !msg.ok {
			m.log.Warn("subscription closed")
			return m, m.showMinibuffer("Disconnected from the list.")
		}
		m.sess.Apply(msg.update)
		m.refreshRows()
		return m, waitForUpdate(m.sess.Updates())

	case writeDoneMsg:
		if msg.err != nil {
			m.log.Error("write failed", "op", msg.op, "id", msg.id, "err", msg.err)
			return m, m.showMinibuffer(fmt.Sprintf("Could not %s item: %v", opVerb(msg.op), msg.err))
		}
		m.log.Debug("write done", "op", msg.op, "id", msg.id)
		if msg.op == mutate.OpSet {
			return m, m.showMinibuffer("Item restored.")
		}
		return m, nil

	case snackDoneMsg:
		// Only the latest delete's timer may hide the snackbar.
		if msg.seq == m.snackSeq {
			m.snackVisible = false
		}
		return m, nil

	case minibufferDoneMsg:
		if msg.seq == m.minibufferSeq {
			m.minibufferText = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func opVerb(op mutate.Op) string {
	switch op {
	case mutate.OpAdd:
		return "add"
	case mutate.OpDelete:
		return "delete"
	case mutate.OpSet:
		return "restore"
	default:
		return "update"
	}
}

func (m appModel) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		m.cycleFilter()
		return m, nil
	case "1", "2", "3":
		m.setFilter(model.Filters[int(msg.Runes[0]-'1')])
		return m, nil

	case "a":
		return m, m.openForm(modalAddItem, mutate.Draft{Quantity: "1"})

	case "e", "enter":
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		m.sess.BeginEdit(it)
		return m, m.openForm(modalEditItem, mutate.DraftFromItem(it))

	case " ", "x":
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		w, err := m.sess.Toggle(it)
		if err != nil {
			return m, m.showMinibuffer(err.Error())
		}
		return m, m.writeCmd(w)

	case "d":
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		w, err := m.sess.Delete(it)
		if err != nil {
			return m, m.showMinibuffer(err.Error())
		}
		return m, tea.Batch(m.writeCmd(w), m.showSnackbar())

	case "u":
		w, ok := m.sess.UndoDelete()
		if !ok {
			return m, m.showMinibuffer("Nothing to undo.")
		}
		m.snackVisible = false
		return m, m.writeCmd(w)
	}

	prev := m.list.Index()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.skipHeader(prev)
	return m, cmd
}

// skipHeader moves the cursor off a category heading in the direction it was
// travelling.
func (m *appModel) skipHeader(prev int) {
	idx := m.list.Index()
	rows := m.list.Items()
	if idx < 0 || idx >= len(rows) {
		return
	}
	if _, ok := rows[idx].(headerItem); !ok {
		return
	}
	target := firstRow(rows, idx)
	if idx < prev {
		target = lastRow(rows, idx)
	}
	if target >= 0 {
		m.list.Select(target)
	}
}

func (m *appModel) openForm(kind modalKind, d mutate.Draft) tea.Cmd {
	m.modal = kind
	m.form = newItemForm(d)
	return m.form.setFocus(fieldName)
}

func (m *appModel) closeForm() {
	if m.modal == modalEditItem {
		m.sess.CancelEdit()
	}
	m.modal = modalNone
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+g":
		m.closeForm()
		return m, nil
	case "enter":
		return m.submitForm()
	}
	cmd := m.form.update(msg)
	return m, cmd
}

func (m appModel) submitForm() (tea.Model, tea.Cmd) {
	d := m.form.Draft()
	switch m.modal {
	case modalAddItem:
		w, err := m.sess.Add(d)
		if err != nil {
			return m, m.showMinibuffer(err.Error())
		}
		m.modal = modalNone
		return m, m.writeCmd(w)
	case modalEditItem:
		w, err := m.sess.SaveEdit(d)
		if err != nil {
			return m, m.showMinibuffer(err.Error())
		}
		m.modal = modalNone
		m.refreshRows()
		return m, m.writeCmd(w)
	}
	return m, nil
}
