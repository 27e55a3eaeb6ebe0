package docserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"shoplist-cli/internal/docstore"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (the shoplist CLI/TUI) send no Origin.
			return true
		}
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	orderBy, ok := orderByParam(w, r)
	if !ok {
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := c.Subscribe(ctx, orderBy)
	if err != nil {
		_ = writeFrame(conn, docstore.Frame{Type: docstore.FrameError, Error: err.Error()})
		return
	}
	defer sub.Close()

	log := s.log.With("collection", r.PathValue("name"), "remote", r.RemoteAddr)
	log.Info("subscriber connected", "orderBy", orderBy)
	defer log.Info("subscriber disconnected")

	// Reader: we expect nothing but control frames; a read error means the
	// client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			f := docstore.SnapshotFrame(u.Snapshot)
			if u.Err != nil {
				f = docstore.Frame{Type: docstore.FrameError, Error: u.Err.Error()}
			}
			if err := writeFrame(conn, f); err != nil {
				log.Debug("write frame failed", "err", err)
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, f docstore.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// orderByParam reads ?orderBy=, defaulting to "name".
func orderByParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	orderBy := strings.TrimSpace(r.URL.Query().Get("orderBy"))
	if orderBy == "" {
		orderBy = "name"
	}
	if !docstore.ValidName(orderBy) {
		writeError(w, http.StatusBadRequest, docstore.ErrInvalidField)
		return "", false
	}
	return orderBy, true
}
