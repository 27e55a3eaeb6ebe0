// Package docstore is the document-collection boundary the shopping list talks to.
//
// A Collection holds JSON documents keyed by an opaque id. Clients subscribe to
// ordered snapshots of the whole collection and issue per-document writes; every
// committed write is followed by a fresh snapshot to every subscriber.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidField      = errors.New("invalid field name")
	ErrClosed            = errors.New("collection closed")
	ErrSubscriptionEnded = errors.New("subscription ended")
)

// Fields is a (possibly partial) document body.
type Fields map[string]any

// Document is one stored document.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Snapshot is the full, ordered contents of a collection at one point in time.
type Snapshot struct {
	Docs []Document `json:"docs"`
	At   time.Time  `json:"at"`
}

// Update is one message on a subscription: either a snapshot or an error.
// Errors do not end the subscription; the channel closing does.
type Update struct {
	Snapshot Snapshot
	Err      error
}

type Subscription interface {
	// Updates delivers snapshots in commit order. Pending snapshots are
	// coalesced so a slow reader only sees the newest one.
	Updates() <-chan Update
	Close() error
}

type Collection interface {
	Subscribe(ctx context.Context, orderBy string) (Subscription, error)
	Add(ctx context.Context, fields Fields) (string, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	// Set replaces (or creates) the document at id.
	Set(ctx context.Context, id string, fields Fields) error
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether s can be used as a field or collection name.
func ValidName(s string) bool {
	return fieldNameRe.MatchString(s)
}

func validateFields(fields Fields) error {
	for k := range fields {
		if !ValidName(k) || k == "id" {
			return fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
	}
	return nil
}

// First returns the first snapshot delivered for c ordered by orderBy.
func First(ctx context.Context, c Collection, orderBy string) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := c.Subscribe(ctx, orderBy)
	if err != nil {
		return Snapshot{}, err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case u, ok := <-sub.Updates():
			if !ok {
				return Snapshot{}, ErrSubscriptionEnded
			}
			if u.Err != nil {
				return Snapshot{}, u.Err
			}
			return u.Snapshot, nil
		}
	}
}

// Find returns the document with id from snap.
func (s Snapshot) Find(id string) (Document, bool) {
	for _, d := range s.Docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// updateQueue is a single-slot mailbox. Senders never block: a newer update
// replaces one the reader has not taken yet.
type updateQueue struct {
	ch chan Update
}

func newUpdateQueue() updateQueue {
	return updateQueue{ch: make(chan Update, 1)}
}

// offer must only be called by one sender at a time.
func (q updateQueue) offer(u Update) {
	select {
	case q.ch <- u:
		return
	default:
	}
	select {
	case <-q.ch:
	default:
	}
	select {
	case q.ch <- u:
	default:
	}
}
