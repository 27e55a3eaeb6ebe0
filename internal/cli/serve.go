package cli

import (
	"shoplist-cli/internal/docserver"
	"shoplist-cli/internal/docstore"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Share the local list with other clients over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("listen") {
				listen = app.cfg.Listen
			}
			if !cmd.Flags().Changed("db") {
				dbPath = app.cfg.DBPath()
			}

			db, err := docstore.OpenSQLite(ctx, dbPath, app.log)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			srv, err := docserver.NewServer(docserver.Config{
				Addr:   listen,
				DB:     db,
				Logger: app.log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("serving", "addr", listen, "db", dbPath)
			if err := srv.Run(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default: config `listen`)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to serve (default: <dataDir>/shoplist.sqlite)")
	return cmd
}
