package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
)

func TestWatch_StreamsEvents(t *testing.T) {
	hub := notify.NewHub(16)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewWatchHandler(hub, logger)

	srv := httptest.NewServer(http.HandlerFunc(handler.Watch))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?provider=marcus", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The provider filter must drop this one.
	hub.Publish(context.Background(), notify.Event{
		Type:          notify.TypeAppointmentChanged,
		Action:        "booked",
		AppointmentID: "other",
		ProviderID:    "deshawn",
	})
	hub.Publish(context.Background(), notify.Event{
		Type:          notify.TypeAppointmentChanged,
		Action:        "booked",
		AppointmentID: "mine",
		ProviderID:    "marcus",
	})

	buf := make([]byte, 4096)
	var received strings.Builder
	for {
		n, err := resp.Body.Read(buf)
		received.Write(buf[:n])
		if strings.Contains(received.String(), `"appointment_id":"mine"`) {
			break
		}
		if err != nil {
			t.Fatalf("stream ended early: %v (got %q)", err, received.String())
		}
	}
	if strings.Contains(received.String(), `"appointment_id":"other"`) {
		t.Fatalf("provider filter leaked: %q", received.String())
	}
}
