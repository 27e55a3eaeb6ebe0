package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestCollection(t *testing.T) (*SQLiteDB, Collection) {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "docs.sqlite"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	c, err := db.Collection("items")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	return db, c
}

// waitFor reads updates until pred accepts a snapshot.
func waitFor(t *testing.T, sub Subscription, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-sub.Updates():
			if !ok {
				t.Fatalf("subscription closed while waiting")
			}
			if u.Err != nil {
				t.Fatalf("unexpected update error: %v", u.Err)
			}
			if pred(u.Snapshot) {
				return u.Snapshot
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot")
		}
	}
}

func names(s Snapshot) []string {
	out := make([]string, 0, len(s.Docs))
	for _, d := range s.Docs {
		n, _ := d.Data["name"].(string)
		out = append(out, n)
	}
	return out
}

func TestSQLite_SubscribeDeliversOrderedSnapshots(t *testing.T) {
	ctx := context.Background()
	_, c := openTestCollection(t)

	sub, err := c.Subscribe(ctx, "name")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	waitFor(t, sub, func(s Snapshot) bool { return len(s.Docs) == 0 })

	for _, n := range []string{"Milk", "Bread", "Eggs"} {
		if _, err := c.Add(ctx, Fields{"name": n, "quantity": 1}); err != nil {
			t.Fatalf("Add(%s): %v", n, err)
		}
	}

	snap := waitFor(t, sub, func(s Snapshot) bool { return len(s.Docs) == 3 })
	got := names(snap)
	want := []string{"Bread", "Eggs", "Milk"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestSQLite_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	_, c := openTestCollection(t)

	id, err := c.Add(ctx, Fields{"name": "Milk", "quantity": 2, "purchased": false})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Update(ctx, id, Fields{"purchased": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap, err := First(ctx, c, "name")
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	doc, ok := snap.Find(id)
	if !ok {
		t.Fatalf("expected document %s", id)
	}
	if doc.Data["name"] != "Milk" {
		t.Fatalf("expected name kept, got %v", doc.Data["name"])
	}
	if doc.Data["purchased"] != true {
		t.Fatalf("expected purchased=true, got %v", doc.Data["purchased"])
	}
}

func TestSQLite_UpdateMissingIsNotFound(t *testing.T) {
	_, c := openTestCollection(t)
	err := c.Update(context.Background(), "nope", Fields{"purchased": true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_SetRecreatesDeletedDocumentAtSameID(t *testing.T) {
	ctx := context.Background()
	_, c := openTestCollection(t)

	id, err := c.Add(ctx, Fields{"name": "Milk", "quantity": 2})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap, err := First(ctx, c, "name")
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if len(snap.Docs) != 0 {
		t.Fatalf("expected empty collection after delete, got %d docs", len(snap.Docs))
	}

	if err := c.Set(ctx, id, Fields{"name": "Milk", "quantity": 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	snap, err = First(ctx, c, "name")
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if _, ok := snap.Find(id); !ok {
		t.Fatalf("expected document recreated at %s", id)
	}
}

func TestSQLite_DeleteMissingIsNoop(t *testing.T) {
	_, c := openTestCollection(t)
	if err := c.Delete(context.Background(), "nope"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestSQLite_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db, items := openTestCollection(t)
	other, err := db.Collection("other")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if _, err := other.Add(ctx, Fields{"name": "X"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	snap, err := First(ctx, items, "name")
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if len(snap.Docs) != 0 {
		t.Fatalf("expected items empty, got %d", len(snap.Docs))
	}
}

func TestSQLite_RejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	db, c := openTestCollection(t)

	if _, err := c.Subscribe(ctx, "name; DROP TABLE documents"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for orderBy, got %v", err)
	}
	if _, err := c.Add(ctx, Fields{"bad key": 1}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for field, got %v", err)
	}
	if _, err := c.Add(ctx, Fields{"id": "x"}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for id field, got %v", err)
	}
	if _, err := db.Collection("../x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for collection, got %v", err)
	}
}

func TestSQLite_CloseEndsSubscriptions(t *testing.T) {
	ctx := context.Background()
	db, c := openTestCollection(t)

	sub, err := c.Subscribe(ctx, "name")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected updates channel to close")
		}
	}
}

func TestSQLite_ContextCancelEndsSubscription(t *testing.T) {
	_, c := openTestCollection(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := c.Subscribe(ctx, "name")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected updates channel to close after cancel")
		}
	}
}
