package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLiteDB is a local document store holding any number of collections in one
// SQLite file. It is the backing store for `shoplist serve` and for the
// embedded (no --remote) mode.
type SQLiteDB struct {
	db  *sql.DB
	log *slog.Logger

	// mu guards subs and serializes snapshot fan-out so subscribers always
	// see snapshots in commit order.
	mu     sync.Mutex
	subs   map[string]map[*sqliteSub]struct{}
	closed bool
}

func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLiteDB, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: pragmas apply to it, and writers never contend with
	// each other inside this process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite store opened", "path", path)
	return &SQLiteDB{
		db:   db,
		log:  log,
		subs: map[string]map[*sqliteSub]struct{}{},
	}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Close ends every open subscription and closes the database.
func (d *SQLiteDB) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, subs := range d.subs {
		for s := range subs {
			s.closeLocked()
		}
	}
	d.subs = map[string]map[*sqliteSub]struct{}{}
	d.mu.Unlock()
	return d.db.Close()
}

// Collection returns a handle on the named collection.
func (d *SQLiteDB) Collection(name string) (Collection, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: collection %q", ErrInvalidField, name)
	}
	return &sqliteCollection{d: d, name: name}, nil
}

type sqliteCollection struct {
	d    *SQLiteDB
	name string
}

type sqliteSub struct {
	d          *SQLiteDB
	collection string
	orderBy    string
	q          updateQueue
	once       sync.Once
	done       chan struct{}
	isClosed   bool
}

func (s *sqliteSub) Updates() <-chan Update { return s.q.ch }

func (s *sqliteSub) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if subs := s.d.subs[s.collection]; subs != nil {
		delete(subs, s)
	}
	s.closeLocked()
	return nil
}

// closeLocked requires d.mu.
func (s *sqliteSub) closeLocked() {
	s.once.Do(func() {
		s.isClosed = true
		close(s.done)
		close(s.q.ch)
	})
}

func (c *sqliteCollection) Subscribe(ctx context.Context, orderBy string) (Subscription, error) {
	if !ValidName(orderBy) {
		return nil, fmt.Errorf("%w: order by %q", ErrInvalidField, orderBy)
	}
	d := c.d
	s := &sqliteSub{
		d:          d,
		collection: c.name,
		orderBy:    orderBy,
		q:          newUpdateQueue(),
		done:       make(chan struct{}),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	snap, err := d.query(ctx, c.name, orderBy)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	if d.subs[c.name] == nil {
		d.subs[c.name] = map[*sqliteSub]struct{}{}
	}
	d.subs[c.name][s] = struct{}{}
	s.q.offer(Update{Snapshot: snap})
	d.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	d.log.Debug("subscribed", "collection", c.name, "orderBy", orderBy, "docs", len(snap.Docs))
	return s, nil
}

func (c *sqliteCollection) Add(ctx context.Context, fields Fields) (string, error) {
	if err := validateFields(fields); err != nil {
		return "", err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UTC().UnixMilli()
	if _, err := c.d.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		c.name, id, string(raw), now, now,
	); err != nil {
		return "", err
	}
	c.d.log.Debug("document added", "collection", c.name, "id", id)
	c.d.broadcast(ctx, c.name)
	return id, nil
}

func (c *sqliteCollection) Update(ctx context.Context, id string, fields Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	tx, err := c.d.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var cur string
	err = tx.QueryRowContext(ctx, `SELECT json FROM documents WHERE collection = ? AND id = ?`, c.name, id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(cur), &data); err != nil {
		return fmt.Errorf("decode document %s: %w", id, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	for k, v := range fields {
		data[k] = v
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET json = ?, updated_at_unixms = ? WHERE collection = ? AND id = ?`,
		string(raw), time.Now().UTC().UnixMilli(), c.name, id,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.d.log.Debug("document updated", "collection", c.name, "id", id, "fields", len(fields))
	c.d.broadcast(ctx, c.name)
	return nil
}

func (c *sqliteCollection) Delete(ctx context.Context, id string) error {
	res, err := c.d.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	c.d.log.Debug("document deleted", "collection", c.name, "id", id)
	c.d.broadcast(ctx, c.name)
	return nil
}

func (c *sqliteCollection) Set(ctx context.Context, id string, fields Fields) error {
	if id == "" {
		return errors.New("set: empty id")
	}
	if err := validateFields(fields); err != nil {
		return err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	if _, err := c.d.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
		c.name, id, string(raw), now, now,
	); err != nil {
		return err
	}
	c.d.log.Debug("document set", "collection", c.name, "id", id)
	c.d.broadcast(ctx, c.name)
	return nil
}

func (d *SQLiteDB) query(ctx context.Context, collection, orderBy string) (Snapshot, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, json FROM documents WHERE collection = ? ORDER BY json_extract(json, ?), id`,
		collection, "$."+orderBy,
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	snap := Snapshot{Docs: []Document{}, At: time.Now().UTC()}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return Snapshot{}, err
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			d.log.Warn("skipping undecodable document", "collection", collection, "id", id, "err", err)
			continue
		}
		snap.Docs = append(snap.Docs, Document{ID: id, Data: data})
	}
	return snap, rows.Err()
}

// broadcast pushes a fresh snapshot to every subscriber of collection. The
// write has already committed, so a cancelled caller context must not stop it.
func (d *SQLiteDB) broadcast(ctx context.Context, collection string) {
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	byOrder := map[string]Update{}
	for s := range d.subs[collection] {
		u, ok := byOrder[s.orderBy]
		if !ok {
			snap, err := d.query(ctx, collection, s.orderBy)
			if err != nil {
				d.log.Error("snapshot query failed", "collection", collection, "err", err)
				u = Update{Err: err}
			} else {
				u = Update{Snapshot: snap}
			}
			byOrder[s.orderBy] = u
		}
		if !s.isClosed {
			s.q.offer(u)
		}
	}
}
