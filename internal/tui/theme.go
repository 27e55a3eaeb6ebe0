package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers.
//
// The list has to stay readable on light and dark terminals, so colours are
// adaptive and faint styling is only used on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg   lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorSurfaceBg  lipgloss.TerminalColor = ac("255", "235")
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorDone       lipgloss.TerminalColor = ac("#22863a", "#97e023")
	colorError      lipgloss.TerminalColor = ac("196", "203")
	colorWarn       lipgloss.TerminalColor = ac("#ff8b00", "#ffaf00")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleTabActive() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorAccentFg).
		Background(colorAccent).
		Bold(true)
}

func styleTab() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
}

func styleCategory() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
}

func stylePurchased() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true))
}

func styleSnackbar() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorAccentFg).
		Background(colorAccent)
}

// applyColorProfilePreference sets Lip Gloss's colour profile for the TUI.
//
// pref is the "color" config value: "never" forces plain text, "always" keeps
// at least 256 colours even when detection reports less, and "auto" (or
// empty) honours NO_COLOR and otherwise trusts the terminal.
func applyColorProfilePreference(pref string) {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	case "always":
		profile := termenv.ColorProfile()
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
		lipgloss.SetColorProfile(profile)
		return
	}

	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	// TERM/COLORTERM often know better than the probe (macOS Terminal.app).
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && profile != termenv.TrueColor {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}
