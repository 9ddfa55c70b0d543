// Package api exposes the orchestrator over HTTP for the control UI.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nutcracker/showrunner/internal/show"
	"github.com/nutcracker/showrunner/internal/stream"
)

// Server routes control requests to the orchestrator.
type Server struct {
	orch        *show.Orchestrator
	catalog     *show.Catalog
	broadcaster *stream.Broadcaster
	webrtc      *stream.WebRTCHandler
}

// New creates the API. catalog may be nil, in which case only explicit
// shows can be queued.
func New(orch *show.Orchestrator, catalog *show.Catalog, b *stream.Broadcaster) *Server {
	return &Server{
		orch:        orch,
		catalog:     catalog,
		broadcaster: b,
		webrtc:      stream.NewWebRTCHandler(b),
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/preview", stream.NewSSEHandler(s.broadcaster))
	mux.Handle("/offer", s.webrtc)

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/queue", s.handleQueue)
	mux.HandleFunc("/api/skip", s.handleSkip)
	mux.HandleFunc("/api/volume", s.handleVolume)
	mux.HandleFunc("/api/brightness", s.handleBrightness)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/events", s.handleEvents)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.orch.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"current":          st.Current,
		"queue":            st.Queue,
		"queue_size":       len(st.Queue),
		"volume":           st.Volume,
		"brightness":       st.Brightness,
		"preview_clients":  s.broadcaster.ListenerCount(),
		"webrtc_listeners": s.webrtc.PeerCount(),
	})
}

// queueRequest either names a catalog show or describes one inline.
type queueRequest struct {
	Name       string `json:"name"`
	Music      string `json:"music"`
	Pattern    string `json:"pattern"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"queue": s.orch.Queued()})
		return
	case http.MethodPost:
	default:
		http.Error(w, "GET or POST required", http.StatusMethodNotAllowed)
		return
	}

	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	var sh show.Show
	if req.Pattern == "" {
		var ok bool
		if s.catalog != nil {
			sh, ok = s.catalog.Lookup(req.Name)
		}
		if !ok {
			http.Error(w, "unknown show", http.StatusNotFound)
			return
		}
	} else {
		if req.DurationMs <= 0 {
			http.Error(w, "duration_ms must be positive", http.StatusBadRequest)
			return
		}
		sh = show.Show{
			Name:        req.Name,
			Duration:    time.Duration(req.DurationMs) * time.Millisecond,
			MusicPath:   req.Music,
			PatternPath: req.Pattern,
		}
	}

	sh = s.orch.Enqueue(sh)
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "show": sh, "queue_size": len(s.orch.Queued())})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": s.orch.Skip()})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Volume *int `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Volume == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if v := *req.Volume; v < 0 || v > 100 {
		http.Error(w, "volume must be 0-100", http.StatusBadRequest)
		return
	}
	s.orch.SetVolume(*req.Volume)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "volume": s.orch.Volume()})
}

func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Brightness *int `json:"brightness"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Brightness == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if v := *req.Brightness; v < 0 || v > 100 {
		http.Error(w, "brightness must be 0-100", http.StatusBadRequest)
		return
	}
	s.orch.SetBrightness(*req.Brightness)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "brightness": s.orch.Brightness()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	shows := []show.Show{}
	if s.catalog != nil {
		shows = s.catalog.Shows()
	}
	writeJSON(w, http.StatusOK, map[string]any{"shows": shows})
}

// handleEvents streams orchestrator notifications as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub := s.orch.Subscribe()
	defer s.orch.Unsubscribe(sub)
	log.Printf("Event listener connected (total: %d)", s.orch.Events().SubscriberCount())

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case ev := <-sub.C:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("Encode event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
