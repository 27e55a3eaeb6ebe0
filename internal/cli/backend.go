package cli

import (
	"context"

	"shoplist-cli/internal/docstore"
)

// backend is the collection a command works against plus whatever has to be
// released afterwards.
type backend struct {
	coll docstore.Collection
	db   *docstore.SQLiteDB
}

func (b backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// openBackend connects to the configured remote, or opens the local SQLite
// store when no remote is set.
func openBackend(ctx context.Context, app *App) (backend, error) {
	if app.cfg.Remote != "" {
		r, err := docstore.NewRemote(docstore.RemoteConfig{
			BaseURL:    app.cfg.Remote,
			Collection: app.cfg.Collection,
			Logger:     app.log,
		})
		if err != nil {
			return backend{}, err
		}
		return backend{coll: r}, nil
	}

	db, err := docstore.OpenSQLite(ctx, app.cfg.DBPath(), app.log)
	if err != nil {
		return backend{}, err
	}
	coll, err := db.Collection(app.cfg.Collection)
	if err != nil {
		_ = db.Close()
		return backend{}, err
	}
	return backend{coll: coll, db: db}, nil
}
