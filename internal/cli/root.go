package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shoplist-cli/internal/config"
	"shoplist-cli/internal/format"
	"shoplist-cli/internal/session"
	"shoplist-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type App struct {
	Remote     string
	DataDir    string
	Collection string
	PrettyJSON bool
	Format     string

	cfg       config.Config
	log       *slog.Logger
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "shoplist",
		Short:        "A shared shopping list for the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  shoplist

  # Scriptable commands
  shoplist items add Milk --qty 2 --category Dairy --icon cow
  shoplist items list --filter active --grouped

  # Share the list from this machine
  shoplist serve --listen 0.0.0.0:8765
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Remote, "remote", "", "Document server URL (overrides config `remote`)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Directory for the local SQLite store (overrides config `dataDir`)")
	cmd.PersistentFlags().StringVar(&app.Collection, "collection", "", "Collection holding the list (overrides config `collection`)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format ("+strings.Join(format.Formats, "|")+")")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return format.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newIconsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup resolves configuration (defaults < file < env < flags) and opens the
// log sink.
func (app *App) setup(cmd *cobra.Command) error {
	if err := format.Validate(app.Format); err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return writeErr(cmd, err)
	}
	flags := cmd.Flags()
	overrideString(flags, "remote", &cfg.Remote, app.Remote)
	overrideString(flags, "data-dir", &cfg.DataDir, app.DataDir)
	overrideString(flags, "collection", &cfg.Collection, app.Collection)
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	log, closer, err := newLogger(cfg)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = log
	app.logCloser = closer
	return nil
}

func overrideString(flags *pflag.FlagSet, name string, dst *string, v string) {
	if f := flags.Lookup(name); f != nil && f.Changed {
		*dst = strings.TrimSpace(v)
	}
}

// newLogger writes structured logs to cfg.LogFile, or nowhere. The TUI owns
// the terminal, so logs never go to stdout or stderr.
func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(cfg.LogFile) == "" {
		return slog.New(slog.DiscardHandler), nil, nil
	}
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), f, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	be, err := openBackend(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer be.Close()

	sess, err := session.Open(ctx, be.coll, session.Options{Logger: app.log})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer sess.Close()

	app.log.Info("tui start", "remote", app.cfg.Remote, "collection", app.cfg.Collection)
	err = tui.Run(ctx, sess, tui.Options{
		Logger:     app.log,
		UndoWindow: app.cfg.UndoWindow(),
		Glyphs:     app.cfg.Glyphs,
		Color:      app.cfg.Color,
	})
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return writeErr(cmd, err)
	}
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
