package tui

import (
	"strings"

	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formField int

const (
	fieldName formField = iota
	fieldQuantity
	fieldCategory
	fieldIcon
	formFieldCount
)

// itemForm backs both the add form and the edit modal.
type itemForm struct {
	name     textinput.Model
	quantity textinput.Model
	category textinput.Model
	picker   iconPicker
	// icon is written by the picker's onSelect. Shared so copies of the
	// form made by the bubbletea loop see the same value.
	icon  *string
	focus formField
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

func newItemForm(d mutate.Draft) itemForm {
	icon := strings.TrimSpace(d.Icon)
	f := itemForm{
		name:     newTextInput("Milk", 120),
		quantity: newTextInput("1", 6),
		category: newTextInput(model.Uncategorized, 60),
		picker:   newIconPicker(icon, func(s string) { icon = s }),
		icon:     &icon,
	}
	f.name.SetValue(d.Name)
	f.quantity.SetValue(d.Quantity)
	f.category.SetValue(d.Category)
	f.setFocus(fieldName)
	return f
}

// Draft returns the form's raw input.
func (f itemForm) Draft() mutate.Draft {
	return mutate.Draft{
		Name:     f.name.Value(),
		Quantity: f.quantity.Value(),
		Category: f.category.Value(),
		Icon:     *f.icon,
	}
}

func (f *itemForm) input(field formField) *textinput.Model {
	switch field {
	case fieldName:
		return &f.name
	case fieldQuantity:
		return &f.quantity
	case fieldCategory:
		return &f.category
	default:
		return nil
	}
}

func (f *itemForm) setFocus(field formField) tea.Cmd {
	f.focus = field
	var cmd tea.Cmd
	for i := fieldName; i < formFieldCount; i++ {
		ti := f.input(i)
		if ti == nil {
			continue
		}
		if i == field {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return cmd
}

func (f *itemForm) cycleFocus(delta int) tea.Cmd {
	n := int(formFieldCount)
	next := (int(f.focus) + delta + n) % n
	return f.setFocus(formField(next))
}

// update routes a key to the focused field. Submission and cancellation are
// handled by the caller.
func (f *itemForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.cycleFocus(1)
	case "shift+tab", "up":
		return f.cycleFocus(-1)
	}
	if f.focus == fieldIcon {
		switch msg.String() {
		case "left", "h":
			f.picker.next(-1)
		case "right", "l", " ":
			f.picker.next(1)
		}
		return nil
	}
	ti := f.input(f.focus)
	if ti == nil {
		return nil
	}
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	return cmd
}

func (f itemForm) View(width int, title string) string {
	bodyW := modalBodyWidth(width)
	lines := []string{
		renderInputLine(bodyW, "Name", f.name.View(), f.focus == fieldName),
		renderInputLine(bodyW, "Quantity", f.quantity.View(), f.focus == fieldQuantity),
		renderInputLine(bodyW, "Category", f.category.View(), f.focus == fieldCategory),
		padRight(styleChrome().Render("Icon"), formLabelWidth) + f.picker.View(f.focus == fieldIcon),
		"",
		styleMuted().Width(bodyW).Render("tab: next field   ←/→: icon   enter: save   esc: cancel"),
	}
	return renderModalBox(width, title, strings.Join(lines, "\n"))
}
