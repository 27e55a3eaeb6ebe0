package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws one form field as "label  [input]" on a single visual
// line of exactly bodyW columns.
func renderInputLine(bodyW int, label string, inputView string, focused bool) string {
	if bodyW < 20 {
		bodyW = 20
	}

	// A newline inside a textinput view would wrap the modal row.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	labelStyle := styleChrome()
	if focused {
		labelStyle = labelStyle.Foreground(colorAccent).Bold(true)
	}
	lbl := labelStyle.Render(padRight(label, formLabelWidth))

	fieldW := bodyW - formLabelWidth
	field := lipgloss.PlaceHorizontal(
		fieldW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	line := lbl + field
	if xansi.StringWidth(line) > bodyW {
		// Terminate styling so a cut escape sequence can't bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

const formLabelWidth = 11

func padRight(s string, w int) string {
	sw := xansi.StringWidth(s)
	if sw >= w {
		return s
	}
	return s + strings.Repeat(" ", w-sw)
}
