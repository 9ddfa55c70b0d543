package stream

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SSEHandler serves the live LED preview as server-sent events. The first
// event describes the layout; each following "frame" event carries the
// packed RGB frame as hex.
type SSEHandler struct {
	broadcaster *Broadcaster
	keepalive   time.Duration
}

// NewSSEHandler creates a preview stream handler.
func NewSSEHandler(b *Broadcaster) *SSEHandler {
	return &SSEHandler{broadcaster: b, keepalive: 15 * time.Second}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	layout, err := json.Marshal(h.broadcaster.Layout())
	if err != nil {
		http.Error(w, "encode layout failed", http.StatusInternalServerError)
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("Preview listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("Preview listener disconnected")

	fmt.Fprintf(w, "event: layout\ndata: %s\n\n", layout)
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.done:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case frame := <-listener.C:
			if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", hex.EncodeToString(frame)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
