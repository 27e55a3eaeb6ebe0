package tui

import (
	"context"
	"log/slog"
	"time"

	"shoplist-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Logger *slog.Logger
	// UndoWindow is how long the delete snackbar stays up.
	UndoWindow time.Duration
	// Glyphs is "unicode" or "ascii".
	Glyphs string
	// Color is "auto", "always" or "never".
	Color string
}

// Run drives the interactive list until the user quits or ctx ends.
func Run(ctx context.Context, sess *session.Session, opts Options) error {
	applyColorProfilePreference(opts.Color)
	applyGlyphPreference(opts.Glyphs)

	m := newAppModel(ctx, sess, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
