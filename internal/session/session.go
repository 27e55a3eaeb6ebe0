// Package session keeps the local mirror of the items collection for one
// running client.
//
// A Session owns exactly one live subscription, ordered by name. The event
// loop reads Updates() and hands each one back through Apply; every snapshot
// replaces the whole list. The only other writer is PatchLocal, which holds an
// edit's optimistic result until the next snapshot supersedes it.
//
// A Session is not safe for concurrent use: all calls come from one loop.
package session

import (
	"context"
	"errors"
	"log/slog"

	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"
)

// OrderBy is the field the item subscription is ordered by.
const OrderBy = "name"

type Status int

const (
	StatusConnecting Status = iota
	StatusLive
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "connecting"
	}
}

type Options struct {
	Logger *slog.Logger
}

type Session struct {
	coll docstore.Collection
	sub  docstore.Subscription
	log  *slog.Logger

	items []model.Item
	// overrides holds edits patched in locally, by id, until the next
	// snapshot.
	overrides map[string]model.Item

	status  Status
	lastErr error

	// Undo holds the last deleted item.
	Undo mutate.UndoBuffer

	editing *model.Item
	closed  bool
}

// Open subscribes to coll and returns a session in the connecting state. The
// first snapshot arrives through Updates like any other.
func Open(ctx context.Context, coll docstore.Collection, opts Options) (*Session, error) {
	if coll == nil {
		return nil, errors.New("session: nil collection")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	sub, err := coll.Subscribe(ctx, OrderBy)
	if err != nil {
		return nil, err
	}
	return &Session{
		coll:   coll,
		sub:    sub,
		log:    log,
		items:  []model.Item{},
		status: StatusConnecting,
	}, nil
}

// Close releases the subscription. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Close()
}

// Collection is the collection intents are written to.
func (s *Session) Collection() docstore.Collection { return s.coll }

// Updates is the subscription stream. It closes when the session does.
func (s *Session) Updates() <-chan docstore.Update { return s.sub.Updates() }

// Apply folds one subscription update into the session.
//
// A snapshot replaces every item and drops all pending local overrides. An
// error leaves the last known items in place and marks the session
// reconnecting until the next snapshot arrives.
func (s *Session) Apply(u docstore.Update) {
	if u.Err != nil {
		s.status = StatusReconnecting
		s.lastErr = u.Err
		s.log.Warn("subscription error; keeping last known items", "err", u.Err, "items", len(s.items))
		return
	}

	items := make([]model.Item, 0, len(u.Snapshot.Docs))
	for _, d := range u.Snapshot.Docs {
		it, err := model.ItemFromFields(d.ID, d.Data)
		if err != nil {
			s.log.Warn("skipping undecodable item", "id", d.ID, "err", err)
			continue
		}
		items = append(items, it)
	}
	s.items = items
	clear(s.overrides)
	s.status = StatusLive
	s.lastErr = nil

	if s.editing != nil {
		if cur, ok := s.find(s.editing.ID); ok {
			cp := cur
			s.editing = &cp
		}
	}
	s.log.Debug("snapshot applied", "items", len(items))
}

// PatchLocal records it as a pending override for the item with the same id.
// The override is visible through Items until the next snapshot; a later
// patch for the same id replaces it, patches for other ids accumulate.
func (s *Session) PatchLocal(it model.Item) {
	if s.overrides == nil {
		s.overrides = map[string]model.Item{}
	}
	s.overrides[it.ID] = it
}

// Items returns the current items in store order with any pending override
// applied. The returned slice is a copy.
func (s *Session) Items() []model.Item {
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	for i := range out {
		if o, ok := s.overrides[out[i].ID]; ok {
			out[i] = o
		}
	}
	return out
}

func (s *Session) find(id string) (model.Item, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// Find returns the current state of the item with id, override included.
func (s *Session) Find(id string) (model.Item, bool) {
	it, ok := s.find(id)
	if !ok {
		return model.Item{}, false
	}
	if o, ok := s.overrides[id]; ok {
		return o, true
	}
	return it, true
}

func (s *Session) Status() Status  { return s.status }
func (s *Session) LastError() error { return s.lastErr }

// BeginEdit marks it as the item being edited.
func (s *Session) BeginEdit(it model.Item) {
	cp := it
	s.editing = &cp
}

func (s *Session) CancelEdit() { s.editing = nil }

// Editing returns the item being edited, if any.
func (s *Session) Editing() (model.Item, bool) {
	if s.editing == nil {
		return model.Item{}, false
	}
	return *s.editing, true
}

// Add validates d and returns the create write.
func (s *Session) Add(d mutate.Draft) (mutate.Write, error) {
	return mutate.Add(d)
}

// Toggle returns the write flipping the item's purchased flag.
func (s *Session) Toggle(it model.Item) (mutate.Write, error) {
	return mutate.Toggle(it.ID, it.Purchased)
}

// Delete remembers it for undo and returns the delete write.
func (s *Session) Delete(it model.Item) (mutate.Write, error) {
	return mutate.Delete(&s.Undo, it)
}

// UndoDelete returns the write re-creating the last deleted item.
func (s *Session) UndoDelete() (mutate.Write, bool) {
	return mutate.Undo(&s.Undo)
}

// SaveEdit applies d to the item being edited, patches the local list and
// ends the edit. It returns the update write.
func (s *Session) SaveEdit(d mutate.Draft) (mutate.Write, error) {
	w, _, err := mutate.Edit(s, s.editing, d)
	if err != nil {
		return mutate.Write{}, err
	}
	s.editing = nil
	return w, nil
}
