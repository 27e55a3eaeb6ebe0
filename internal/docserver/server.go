// Package docserver exposes SQLite-backed document collections over HTTP, with
// live websocket subscriptions pushing full ordered snapshots.
package docserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"shoplist-cli/internal/docstore"

	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Addr   string
	DB     *docstore.SQLiteDB
	Logger *slog.Logger

	// PingInterval is how often subscription sockets are pinged.
	PingInterval time.Duration
}

type Server struct {
	cfg Config
	log *slog.Logger
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, errors.New("docserver: missing db")
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, log: log}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("GET /v1/collections/{name}/subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /v1/collections/{name}/events", s.handleEvents)
	mux.HandleFunc("POST /v1/collections/{name}/docs", s.handleAdd)
	mux.HandleFunc("PATCH /v1/collections/{name}/docs/{id}", s.handleUpdate)
	mux.HandleFunc("PUT /v1/collections/{name}/docs/{id}", s.handleSet)
	mux.HandleFunc("DELETE /v1/collections/{name}/docs/{id}", s.handleDelete)

	return mux
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Addr()
	if addr == "" {
		return errors.New("docserver: missing addr")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts derive from ctx so hijacked websocket
		// subscriptions end when the server stops.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("document server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("document server stopping")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (docstore.Collection, bool) {
	c, err := s.cfg.DB.Collection(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return c, true
}

func decodeFields(w http.ResponseWriter, r *http.Request) (docstore.Fields, bool) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	var fields docstore.Fields
	if err := json.Unmarshal(b, &fields); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be a JSON object"))
		return nil, false
	}
	if fields == nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be a JSON object"))
		return nil, false
	}
	return fields, true
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	id, err := c.Add(r.Context(), fields)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, docstore.AddResult{ID: id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	if err := c.Update(r.Context(), r.PathValue("id"), fields); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	if err := c.Set(r.Context(), r.PathValue("id"), fields); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	if err := c.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, docstore.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.log.Error("store write failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, docstore.ErrorBody{Error: err.Error()})
}
