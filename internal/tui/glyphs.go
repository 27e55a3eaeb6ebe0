package tui

import (
	"os"
	"strings"
	"sync"

	"shoplist-cli/internal/model"
)

// Terminals can't show the original icon font, so every icon key maps to a
// Unicode glyph, or to a short ASCII tag for terminals/fonts that render
// emoji poorly.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func parseGlyphSet(v string) (glyphSet, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unicode", "utf8":
		return glyphSetUnicode, true
	case "ascii":
		return glyphSetASCII, true
	default:
		return 0, false
	}
}

// applyGlyphPreference uses SHOPLIST_TUI_GLYPHS when set, else the config
// value. Unknown values are ignored.
func applyGlyphPreference(configured string) {
	v := os.Getenv("SHOPLIST_TUI_GLYPHS")
	if strings.TrimSpace(v) == "" {
		v = configured
	}
	if gs, ok := parseGlyphSet(v); ok {
		setGlyphs(gs)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

var iconGlyphs = map[string][2]string{
	"cart":         {"🛒", "crt"},
	"cart-outline": {"🛒", "crt"},
	"food-apple":   {"🍎", "apl"},
	"bottle-soda":  {"🥤", "sda"},
	"carrot":       {"🥕", "veg"},
	"cheese":       {"🧀", "chz"},
	"cow":          {"🐄", "cow"},
	"fish":         {"🐟", "fsh"},
	"cupcake":      {"🧁", "cak"},
	"ice-cream":    {"🍨", "ice"},
	"rice":         {"🍚", "ric"},
	"toilet-paper": {"🧻", "tp "},
	"pill":         {"💊", "rx "},
	"flower":       {"🌸", "flw"},
	"hanger":       {"👕", "clo"},
	"shopping":     {"🛍", "bag"},
}

// glyphIcon renders an icon key; empty keys render as the fallback icon.
func glyphIcon(icon string) string {
	if strings.TrimSpace(icon) == "" {
		icon = model.FallbackIcon
	}
	g, ok := iconGlyphs[icon]
	if !ok {
		g = iconGlyphs[model.FallbackIcon]
	}
	if glyphs() == glyphSetASCII {
		return "[" + g[1] + "]"
	}
	return g[0]
}

func glyphCheckbox(checked bool) string {
	if glyphs() == glyphSetASCII {
		if checked {
			return "[x]"
		}
		return "[ ]"
	}
	if checked {
		return "☑"
	}
	return "☐"
}

func glyphArrowLeft() string {
	if glyphs() == glyphSetASCII {
		return "<"
	}
	return "◂"
}

func glyphArrowRight() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}
