package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/floorlinehq/floorline/services/queue-service/internal/audit"
)

type fakeAuditLister struct {
	events    []audit.Event
	err       error
	lastLimit int
}

func (f *fakeAuditLister) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	f.lastLimit = limit
	return f.events, f.err
}

func auditGet(h *AuditHandler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.List(rec, req)
	return rec
}

func TestAuditList(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lister := &fakeAuditLister{events: []audit.Event{
		{ID: 2, Action: "check_in", FromStatus: "confirmed", ToStatus: "checked_in"},
		{ID: 1, Action: "cancel", FromStatus: "confirmed", ToStatus: "cancelled"},
	}}
	h := NewAuditHandler(lister, "s3cret", logger)

	rec := auditGet(h, "/?limit=10", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if lister.lastLimit != 10 {
		t.Fatalf("limit not forwarded: %d", lister.lastLimit)
	}

	var events []audit.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 || events[0].Action != "check_in" {
		t.Fatalf("unexpected payload: %+v", events)
	}
}

func TestAuditList_DefaultLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lister := &fakeAuditLister{}
	h := NewAuditHandler(lister, "s3cret", logger)

	if rec := auditGet(h, "/", "s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if lister.lastLimit != 50 {
		t.Fatalf("expected default limit 50, got %d", lister.lastLimit)
	}
}

func TestAuditList_Unauthorized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuditHandler(&fakeAuditLister{}, "s3cret", logger)

	if rec := auditGet(h, "/", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}
	if rec := auditGet(h, "/", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", rec.Code)
	}

	// No token configured: nothing matches, including an empty header.
	locked := NewAuditHandler(&fakeAuditLister{}, "", logger)
	if rec := auditGet(locked, "/", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unconfigured token: expected 401, got %d", rec.Code)
	}
}

func TestAuditList_NotAvailableWithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuditHandler(nil, "s3cret", logger)

	if rec := auditGet(h, "/", "s3cret"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAuditList_ListerFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuditHandler(&fakeAuditLister{err: errors.New("connection refused")}, "s3cret", logger)

	if rec := auditGet(h, "/", "s3cret"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAuditList_MethodNotAllowed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuditHandler(&fakeAuditLister{}, "s3cret", logger)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
