package tui

import (
	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/mutate"
)

// updateMsg carries one subscription update into the loop. ok is false once
// the subscription channel has closed.
type updateMsg struct {
	update docstore.Update
	ok     bool
}

// writeDoneMsg reports the outcome of a remote write.
type writeDoneMsg struct {
	op  mutate.Op
	id  string
	err error
}

type snackDoneMsg struct{ seq int }

type minibufferDoneMsg struct{ seq int }

type modalKind int

const (
	modalNone modalKind = iota
	modalAddItem
	modalEditItem
)

func (k modalKind) title() string {
	switch k {
	case modalAddItem:
		return "Add item"
	case modalEditItem:
		return "Edit item"
	default:
		return ""
	}
}
