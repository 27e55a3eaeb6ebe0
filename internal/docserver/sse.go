package docserver

import (
	"net/http"
	"time"

	"shoplist-cli/internal/docstore"

	"github.com/starfederation/datastar-go/datastar"
)

// handleEvents streams the same frames as handleSubscribe, as datastar
// signal patches over server-sent events. Browsers and curl can follow a
// list without a websocket client; writes still go through the REST routes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	orderBy, ok := orderByParam(w, r)
	if !ok {
		return
	}

	sub, err := c.Subscribe(r.Context(), orderBy)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	defer sub.Close()

	sse := datastar.NewSSE(w, r)

	log := s.log.With("collection", r.PathValue("name"), "remote", r.RemoteAddr)
	log.Info("event stream connected", "orderBy", orderBy)
	defer log.Info("event stream disconnected")

	keepAlive := time.NewTicker(s.cfg.PingInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			if err := sse.PatchSignals([]byte(`{}`)); err != nil {
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
			if err := sse.MarshalAndPatchSignals(f); err != nil {
				log.Debug("patch signals failed", "err", err)
				return
			}
		}
	}
}
