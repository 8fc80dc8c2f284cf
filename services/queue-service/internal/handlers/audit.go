package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/floorlinehq/floorline/services/queue-service/internal/audit"
)

// AuditLister is the read side of the audit log consumed by the admin
// listing endpoint.
type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditHandler serves the recent transition history to administrators.
// The endpoint is locked behind a shared admin token; with no token
// configured it rejects everything.
type AuditHandler struct {
	audit  AuditLister
	token  string
	logger *slog.Logger
}

func NewAuditHandler(lister AuditLister, token string, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: lister, token: token, logger: logger}
}

const AdminTokenHeader = "X-Admin-Token"

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.audit == nil {
		http.Error(w, "audit not available", http.StatusNotFound)
		return
	}

	reqToken := r.Header.Get(AdminTokenHeader)
	if reqToken == "" || reqToken != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	events, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("audit list failed", "err", err)
		http.Error(w, "failed to load audit events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events)
}
