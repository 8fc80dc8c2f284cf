package sweeper

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/audit"
	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/lifecycle"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *capturedEvents) Publish(_ context.Context, ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturedEvents) ofType(eventType string) []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []notify.Event
	for _, ev := range c.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestSweeper(t *testing.T) (*Sweeper, *storage.Memory, *clock.Fixed, *capturedEvents) {
	t.Helper()
	store := storage.NewMemory()
	clk := &clock.Fixed{T: time.Date(2026, 6, 5, 13, 0, 0, 0, time.UTC)}
	events := &capturedEvents{}
	shop := settings.Shop{
		Location:    time.UTC,
		OpenMinute:  10 * 60,
		CloseMinute: 18 * 60,
		SlotMinutes: 60,
		GracePeriod: 15 * time.Minute,
		PerPerson:   15 * time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := lifecycle.NewMachine(store, shop, clk, audit.Nop{}, events, logger)
	return New(store, machine, shop, clk, events, logger, time.Second), store, clk, events
}

func seed(t *testing.T, store *storage.Memory, slot string, status model.Status) model.Appointment {
	t.Helper()
	appt := model.Appointment{
		CustomerName: "Alice",
		ProviderID:   "marcus",
		ServiceName:  "haircut",
		SlotDate:     "2026-06-05",
		SlotTime:     slot,
		Status:       model.StatusConfirmed,
	}
	if err := store.Insert(context.Background(), &appt); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	if status != model.StatusConfirmed {
		updated, err := store.UpdateStatus(context.Background(), appt.ID, model.ActiveStatuses, status, time.Now(), "")
		if err != nil {
			t.Fatalf("seed status update failed: %v", err)
		}
		return updated
	}
	return appt
}

func TestSweep_GraceBoundaryIsStrict(t *testing.T) {
	sweeper, store, clk, _ := newTestSweeper(t)
	ctx := context.Background()
	appt := seed(t, store, "14:00", model.StatusConfirmed)

	// Exactly slot start + grace: still not a no-show.
	clk.Set(time.Date(2026, 6, 5, 14, 15, 0, 0, time.UTC))
	cancelled, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(cancelled) != 0 {
		t.Fatalf("expected nothing cancelled at the boundary, got %v", cancelled)
	}

	clk.Advance(time.Second)
	cancelled, err = sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(cancelled) != 1 || cancelled[0] != appt.ID {
		t.Fatalf("expected %s cancelled, got %v", appt.ID, cancelled)
	}

	got, err := store.Get(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if got.CancelReason == "" {
		t.Fatal("expected a cancel reason on the expired reservation")
	}
}

func TestSweep_SparesCheckedIn(t *testing.T) {
	sweeper, store, clk, _ := newTestSweeper(t)
	ctx := context.Background()

	stale := seed(t, store, "11:00", model.StatusConfirmed)
	present := seed(t, store, "12:00", model.StatusCheckedIn)
	upcoming := seed(t, store, "16:00", model.StatusConfirmed)

	clk.Set(time.Date(2026, 6, 5, 13, 0, 0, 0, time.UTC))
	cancelled, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(cancelled) != 1 || cancelled[0] != stale.ID {
		t.Fatalf("expected only %s cancelled, got %v", stale.ID, cancelled)
	}

	for _, tc := range []struct {
		id   string
		want model.Status
	}{
		{present.ID, model.StatusCheckedIn},
		{upcoming.ID, model.StatusConfirmed},
	} {
		got, err := store.Get(ctx, tc.id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != tc.want {
			t.Fatalf("appointment %s: expected %s, got %s", tc.id, tc.want, got.Status)
		}
	}
}

func TestSweep_Idempotent(t *testing.T) {
	sweeper, store, clk, events := newTestSweeper(t)
	ctx := context.Background()
	seed(t, store, "11:00", model.StatusConfirmed)

	clk.Set(time.Date(2026, 6, 5, 13, 0, 0, 0, time.UTC))
	first, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 cancelled, got %v", first)
	}

	second, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second sweep must find nothing, got %v", second)
	}

	batches := events.ofType(notify.TypeBatchExpired)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch event, got %d", len(batches))
	}
	if len(batches[0].ExpiredIDs) != 1 {
		t.Fatalf("unexpected batch payload: %+v", batches[0])
	}
}

func TestSweep_EmptyStore(t *testing.T) {
	sweeper, _, _, events := newTestSweeper(t)

	cancelled, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(cancelled) != 0 {
		t.Fatalf("expected nothing cancelled, got %v", cancelled)
	}
	if len(events.ofType(notify.TypeBatchExpired)) != 0 {
		t.Fatal("no batch event expected for an empty sweep")
	}
}
