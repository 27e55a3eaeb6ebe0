package tui

import (
	"strings"

	"shoplist-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// iconPicker chooses one icon from model.Icons. It only tracks the current
// selection; saving it is up to the form.
type iconPicker struct {
	// idx is -1 for "no icon" or for kept, below.
	idx int
	// kept is an icon outside model.Icons that the item already had. It stays
	// selected until the user moves the picker.
	kept     string
	onSelect func(icon string)
}

func newIconPicker(selected string, onSelect func(string)) iconPicker {
	p := iconPicker{idx: model.IconIndex(selected), onSelect: onSelect}
	if p.idx < 0 {
		p.kept = strings.TrimSpace(selected)
	}
	return p
}

// Selected returns the chosen icon key, or "" when none is chosen.
func (p iconPicker) Selected() string {
	if p.idx < 0 || p.idx >= len(model.Icons) {
		return p.kept
	}
	return model.Icons[p.idx]
}

// Select chooses icon and notifies onSelect. Unknown keys clear the choice.
func (p *iconPicker) Select(icon string) {
	p.idx = model.IconIndex(icon)
	p.kept = ""
	if p.onSelect != nil {
		p.onSelect(p.Selected())
	}
}

// next moves the selection by delta, wrapping through "no icon".
func (p *iconPicker) next(delta int) {
	n := len(model.Icons) + 1
	pos := (p.idx + 1 + delta) % n
	if pos < 0 {
		pos += n
	}
	p.Select(iconAt(pos - 1))
}

func iconAt(i int) string {
	if i < 0 || i >= len(model.Icons) {
		return ""
	}
	return model.Icons[i]
}

func (p iconPicker) View(focused bool) string {
	label := "none"
	if sel := p.Selected(); sel != "" {
		label = glyphIcon(sel) + " " + sel
	}
	st := lipgloss.NewStyle().Padding(0, 1).Background(colorInputBg)
	if focused {
		st = st.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	}
	return strings.Join([]string{glyphArrowLeft(), st.Render(label), glyphArrowRight()}, " ")
}
