package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams bus notifications as Server-Sent Events. Open browser
// views subscribe here and refresh when a batch analysis run touches their
// media, without polling.
func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		fail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := g.bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Topic, payload)
			flusher.Flush()
		}
	}
}

// handleHealth reports liveness plus the in-flight request count.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	ok(w, "ok", map[string]any{
		"status":  "ok",
		"pending": g.inflight.Pending(),
	})
}
