package docstore

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Websocket frame types pushed on a subscription.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Frame is one message on the subscription websocket.
type Frame struct {
	Type  string     `json:"type"`
	Docs  []Document `json:"docs,omitempty"`
	At    time.Time  `json:"at,omitempty"`
	Error string     `json:"error,omitempty"`
}

func SnapshotFrame(s Snapshot) Frame {
	docs := s.Docs
	if docs == nil {
		docs = []Document{}
	}
	return Frame{Type: FrameSnapshot, Docs: docs, At: s.At}
}

// ErrorBody is the JSON body of a failed HTTP request.
type ErrorBody struct {
	Error string `json:"error"`
}

// AddResult is the JSON body returned when a document is created.
type AddResult struct {
	ID string `json:"id"`
}

// StatusError is a non-2xx response from a document server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("docstore: http %d", e.Code)
	}
	return fmt.Sprintf("docstore: http %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// CollectionPath returns the URL path for a collection's documents.
func CollectionPath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection) + "/docs"
}

// DocumentPath returns the URL path for one document.
func DocumentPath(collection, id string) string {
	return CollectionPath(collection) + "/" + url.PathEscape(id)
}

// SubscribePath returns the websocket path for a collection subscription.
func SubscribePath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection) + "/subscribe"
}
