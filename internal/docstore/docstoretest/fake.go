// Package docstoretest provides an in-memory recording Collection for tests.
package docstoretest

import (
	"context"
	"fmt"
	"sync"

	"shoplist-cli/internal/docstore"
)

// Call records one write issued against a Fake.
type Call struct {
	Op     string
	ID     string
	Fields docstore.Fields
}

// Fake records writes and lets tests push updates to subscribers by hand.
// Writes do not produce snapshots on their own.
type Fake struct {
	mu     sync.Mutex
	calls  []Call
	nextID int
	subs   []*fakeSub

	// Err, when set, is returned by every write.
	Err error
	// SubscribeErr, when set, is returned by Subscribe.
	SubscribeErr error
}

func New() *Fake { return &Fake{} }

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Err
}

func (f *Fake) Add(ctx context.Context, fields docstore.Fields) (string, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.mu.Unlock()
	if err := f.record(Call{Op: "add", ID: id, Fields: fields}); err != nil {
		return "", err
	}
	return id, nil
}

func (f *Fake) Update(ctx context.Context, id string, fields docstore.Fields) error {
	return f.record(Call{Op: "update", ID: id, Fields: fields})
}

func (f *Fake) Delete(ctx context.Context, id string) error {
	return f.record(Call{Op: "delete", ID: id})
}

func (f *Fake) Set(ctx context.Context, id string, fields docstore.Fields) error {
	return f.record(Call{Op: "set", ID: id, Fields: fields})
}

// Calls returns a copy of the recorded writes.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Subscriptions returns how many subscriptions are currently open.
func (f *Fake) Subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if !s.closed {
			n++
		}
	}
	return n
}

func (f *Fake) Subscribe(ctx context.Context, orderBy string) (docstore.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	s := &fakeSub{f: f, ch: make(chan docstore.Update, 16)}
	f.subs = append(f.subs, s)
	return s, nil
}

// Push delivers u to every open subscription.
func (f *Fake) Push(u docstore.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if !s.closed {
			s.ch <- u
		}
	}
}

// PushDocs is shorthand for pushing a snapshot of docs.
func (f *Fake) PushDocs(docs ...docstore.Document) {
	if docs == nil {
		docs = []docstore.Document{}
	}
	f.Push(docstore.Update{Snapshot: docstore.Snapshot{Docs: docs}})
}

type fakeSub struct {
	f      *Fake
	ch     chan docstore.Update
	closed bool
}

func (s *fakeSub) Updates() <-chan docstore.Update { return s.ch }

func (s *fakeSub) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
