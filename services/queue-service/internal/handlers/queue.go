package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/floorlinehq/floorline/services/queue-service/internal/queueview"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

type QueueHandler struct {
	store  storage.Store
	shop   settings.Shop
	clock  clock.Clock
	logger *slog.Logger
}

func NewQueueHandler(store storage.Store, shop settings.Shop, clk clock.Clock, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{store: store, shop: shop, clock: clk, logger: logger}
}

// Queue returns the daily queue view for one provider: active appointments
// ranked by slot with per-entry wait estimates.
func (h *QueueHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	providerID := strings.TrimSpace(r.URL.Query().Get("provider"))
	if providerID == "" {
		http.Error(w, "provider required", http.StatusBadRequest)
		return
	}
	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.store.ActiveByProviderDay(r.Context(), providerID, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	entries := queueview.Estimate(appts, h.shop.PerPerson)
	writeJSON(w, http.StatusOK, map[string]any{
		"provider_id": providerID,
		"date":        date,
		"queue":       entries,
	})
}

// WalkInWait answers "how long would a walk-in wait right now": only
// checked-in customers count, across all providers.
func (h *QueueHandler) WalkInWait(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	checkedIn, err := h.store.CheckedIn(r.Context(), date)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	wait := queueview.WalkInWait(checkedIn, h.shop.PerPerson)
	writeJSON(w, http.StatusOK, map[string]any{
		"date":                   date,
		"checked_in":             len(checkedIn),
		"estimated_wait_minutes": int(wait / time.Minute),
	})
}

// List returns every appointment (any status) for a provider and date.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	providerID := strings.TrimSpace(r.URL.Query().Get("provider"))
	if providerID == "" {
		http.Error(w, "provider required", http.StatusBadRequest)
		return
	}
	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.store.ListDay(r.Context(), providerID, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, items)
}

// Board returns all active appointments for a date across providers; the
// monitor service uses it as its reconciliation read on (re)connect.
func (h *QueueHandler) Board(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.store.ActiveOn(r.Context(), date)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":         date,
		"appointments": items,
	})
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to the shop-local today.
func (h *QueueHandler) dateParam(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return h.clock.Now().In(h.shop.Location).Format(model.DateLayout), true
	}
	if _, err := time.Parse(model.DateLayout, raw); err != nil {
		return "", false
	}
	return raw, true
}
