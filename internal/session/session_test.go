package session

import (
	"context"
	"errors"
	"testing"

	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/docstore/docstoretest"
	"shoplist-cli/internal/listview"
	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"

	"github.com/google/go-cmp/cmp"
)

func doc(id, name string, qty int, category string, purchased bool) docstore.Document {
	return docstore.Document{ID: id, Data: map[string]any{
		"name":      name,
		"quantity":  float64(qty),
		"category":  category,
		"icon":      "",
		"purchased": purchased,
	}}
}

func openFake(t *testing.T) (*Session, *docstoretest.Fake) {
	t.Helper()
	fake := docstoretest.New()
	s, err := Open(context.Background(), fake, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, fake
}

// next reads one pushed update and applies it.
func next(t *testing.T, s *Session) {
	t.Helper()
	u, ok := <-s.Updates()
	if !ok {
		t.Fatalf("updates closed")
	}
	s.Apply(u)
}

func TestOpen_SubscribesOnce(t *testing.T) {
	s, fake := openFake(t)
	if fake.Subscriptions() != 1 {
		t.Fatalf("expected 1 subscription, got %d", fake.Subscriptions())
	}
	if s.Status() != StatusConnecting {
		t.Fatalf("expected connecting, got %v", s.Status())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fake.Subscriptions() != 0 {
		t.Fatalf("expected subscription released")
	}
}

func TestOpen_PropagatesSubscribeError(t *testing.T) {
	fake := docstoretest.New()
	fake.SubscribeErr = errors.New("offline")
	if _, err := Open(context.Background(), fake, Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApply_SnapshotReplacesItems(t *testing.T) {
	s, fake := openFake(t)

	fake.PushDocs(doc("1", "Bread", 1, "Bakery", false), doc("2", "Milk", 2, "Dairy", false))
	next(t, s)
	if got := len(s.Items()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if s.Status() != StatusLive {
		t.Fatalf("expected live, got %v", s.Status())
	}

	fake.PushDocs(doc("2", "Milk", 2, "Dairy", false))
	next(t, s)
	items := s.Items()
	if len(items) != 1 || items[0].ID != "2" {
		t.Fatalf("expected only Milk after second snapshot, got %+v", items)
	}
}

func TestApply_SkipsUndecodableDocs(t *testing.T) {
	s, fake := openFake(t)
	bad := docstore.Document{ID: "x", Data: map[string]any{"name": "Eggs", "quantity": "a dozen"}}
	fake.PushDocs(doc("1", "Bread", 1, "Bakery", false), bad)
	next(t, s)
	items := s.Items()
	if len(items) != 1 || items[0].Name != "Bread" {
		t.Fatalf("expected only Bread, got %+v", items)
	}
}

func TestApply_ErrorKeepsLastKnownItems(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("1", "Bread", 1, "Bakery", false))
	next(t, s)

	boom := errors.New("connection reset")
	fake.Push(docstore.Update{Err: boom})
	next(t, s)
	if s.Status() != StatusReconnecting {
		t.Fatalf("expected reconnecting, got %v", s.Status())
	}
	if !errors.Is(s.LastError(), boom) {
		t.Fatalf("expected last error to be kept, got %v", s.LastError())
	}
	if len(s.Items()) != 1 {
		t.Fatalf("expected items kept across error")
	}

	fake.PushDocs(doc("1", "Bread", 1, "Bakery", true))
	next(t, s)
	if s.Status() != StatusLive || s.LastError() != nil {
		t.Fatalf("expected recovery on next snapshot, got %v %v", s.Status(), s.LastError())
	}
}

func TestSaveEdit_OverrideUntilNextSnapshot(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("1", "Milk", 1, "Dairy", false))
	next(t, s)

	it, _ := s.Find("1")
	s.BeginEdit(it)
	w, err := s.SaveEdit(mutate.Draft{Name: "Oat milk", Quantity: "2", Category: "Dairy"})
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if _, ok := s.Editing(); ok {
		t.Fatalf("expected edit to end on save")
	}
	if got := s.Items()[0].Name; got != "Oat milk" {
		t.Fatalf("expected optimistic name, got %q", got)
	}
	if _, err := mutate.Exec(context.Background(), fake, w); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	// The store echoes the write back; the override is dropped either way.
	fake.PushDocs(doc("1", "Milk", 1, "Dairy", false))
	next(t, s)
	if got := s.Items()[0].Name; got != "Milk" {
		t.Fatalf("expected snapshot to win, got %q", got)
	}
}

func TestSaveEdit_TwoEditsBeforeSnapshotBothShow(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("a", "Apple", 1, "Fruit", false), doc("b", "Bread", 2, "Bakery", false))
	next(t, s)

	for _, e := range []struct{ id, name, qty string }{
		{"a", "Apples", "1"},
		{"b", "Bagels", "2"},
	} {
		it, _ := s.Find(e.id)
		s.BeginEdit(it)
		if _, err := s.SaveEdit(mutate.Draft{Name: e.name, Quantity: e.qty, Category: it.Category}); err != nil {
			t.Fatalf("SaveEdit %s: %v", e.id, err)
		}
	}

	var names []string
	for _, it := range s.Items() {
		names = append(names, it.Name)
	}
	if diff := cmp.Diff([]string{"Apples", "Bagels"}, names); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if it, _ := s.Find("a"); it.Name != "Apples" {
		t.Fatalf("Find(a) = %q, want Apples", it.Name)
	}

	fake.PushDocs(doc("a", "Apple", 1, "Fruit", false), doc("b", "Bread", 2, "Bakery", false))
	next(t, s)
	if it, _ := s.Find("b"); it.Name != "Bread" {
		t.Fatalf("expected snapshot to drop both patches, got %q", it.Name)
	}
}

func TestSaveEdit_WithoutBeginIsRejected(t *testing.T) {
	s, _ := openFake(t)
	if _, err := s.SaveEdit(mutate.Draft{Name: "x", Quantity: "1"}); !errors.Is(err, mutate.ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestSaveEdit_InvalidDraftKeepsEditing(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("1", "Milk", 1, "Dairy", false))
	next(t, s)
	it, _ := s.Find("1")
	s.BeginEdit(it)
	if _, err := s.SaveEdit(mutate.Draft{Name: "", Quantity: "1"}); !errors.Is(err, mutate.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, ok := s.Editing(); !ok {
		t.Fatalf("expected edit to stay open")
	}
	s.CancelEdit()
	if _, ok := s.Editing(); ok {
		t.Fatalf("expected edit cancelled")
	}
}

func TestGroupedScenario(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(
		doc("1", "Bread", 1, "Bakery", true),
		doc("2", "Cheese", 1, "Dairy", false),
		doc("3", "Milk", 2, "Dairy", true),
		doc("4", "Yogurt", 4, "Dairy", false),
	)
	next(t, s)

	groups := listview.GroupItems(listview.FilterItems(s.Items(), model.FilterAll))
	var got [][]string
	for _, g := range groups {
		names := []string{g.Category}
		for _, it := range g.Items {
			names = append(names, it.Name)
		}
		got = append(got, names)
	}
	want := [][]string{
		{"Bakery", "Bread"},
		{"Dairy", "Cheese", "Yogurt", "Milk"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestTogglePushShiftsCounts(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("1", "Bread", 1, "Bakery", false), doc("2", "Milk", 2, "Dairy", false))
	next(t, s)
	if c := listview.CountItems(s.Items()); c != (listview.Counts{Total: 2, Active: 2, Done: 0}) {
		t.Fatalf("unexpected counts before toggle: %+v", c)
	}

	it, _ := s.Find("2")
	w, err := s.Toggle(it)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if _, err := mutate.Exec(context.Background(), fake, w); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	// No local change until the store pushes.
	if c := listview.CountItems(s.Items()); c.Done != 0 {
		t.Fatalf("expected no optimistic toggle, got %+v", c)
	}

	fake.PushDocs(doc("1", "Bread", 1, "Bakery", false), doc("2", "Milk", 2, "Dairy", true))
	next(t, s)
	if c := listview.CountItems(s.Items()); c != (listview.Counts{Total: 2, Active: 1, Done: 1}) {
		t.Fatalf("unexpected counts after toggle: %+v", c)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	s, fake := openFake(t)
	fake.PushDocs(doc("1", "Milk", 2, "Dairy", false))
	next(t, s)

	it, _ := s.Find("1")
	w, err := s.Delete(it)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mutate.Exec(context.Background(), fake, w); err != nil {
		t.Fatalf("Exec delete: %v", err)
	}
	undo, ok := s.UndoDelete()
	if !ok {
		t.Fatalf("expected undo write")
	}
	if undo.Op != mutate.OpSet || undo.ID != "1" {
		t.Fatalf("unexpected undo write: %+v", undo)
	}
	if _, ok := s.UndoDelete(); ok {
		t.Fatalf("expected undo to be consumed")
	}
}
