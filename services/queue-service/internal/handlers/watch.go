package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
)

// WatchHandler streams notifier events to HTTP clients as server-sent
// events. Filtering by provider happens here, on the subscriber side; the
// hub stays stateless.
type WatchHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

func NewWatchHandler(hub *notify.Hub, logger *slog.Logger) *WatchHandler {
	return &WatchHandler{hub: hub, logger: logger}
}

const heartbeatEvery = 15 * time.Second

func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider"))

	events, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				// Buffer overflowed: the client fell behind and must
				// reconnect and re-fetch state.
				return
			}
			if provider != "" && ev.ProviderID != "" && ev.ProviderID != provider {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("event marshal failed", "err", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
