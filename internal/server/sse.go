package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/internal/notify"
)

// sseHeartbeatInterval keeps idle connections (proxies, browsers) from
// timing out the stream.
const sseHeartbeatInterval = 30 * time.Second

// handleEvents streams every notify.Bus event to the client as
// Server-Sent Events, one JSON-encoded notify.Event per message.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorStatus(w, requestIDFrom(r.Context()), http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan notify.Event, 32)
	unsubscribe := notify.SubscribeAll(func(evt notify.Event) {
		select {
		case events <- evt:
		default:
			logging.Logger.Warn().Msg("sse subscriber channel full, dropping event")
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				logging.Logger.Error().Err(err).Msg("marshal sse event")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
