package queueview

import (
	"testing"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
)

func appt(id, slot string, status model.Status) model.Appointment {
	return model.Appointment{
		ID:         id,
		ProviderID: "marcus",
		SlotDate:   "2026-06-05",
		SlotTime:   slot,
		Status:     status,
	}
}

func TestEstimate_OrdersBySlotNotCreation(t *testing.T) {
	// Booked out of order: the later slot was reserved first.
	appts := []model.Appointment{
		appt("b", "11:30", model.StatusConfirmed),
		appt("a", "10:00", model.StatusConfirmed),
		appt("c", "10:45", model.StatusConfirmed),
	}

	entries := Estimate(appts, 15*time.Minute)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantOrder := []string{"a", "c", "b"}
	for i, want := range wantOrder {
		if entries[i].AppointmentID != want {
			t.Fatalf("position %d: expected %s, got %s", i+1, want, entries[i].AppointmentID)
		}
		if entries[i].Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, entries[i].Position)
		}
		if entries[i].WaitMinutes != i*15 {
			t.Fatalf("position %d: expected wait %d, got %d", i+1, i*15, entries[i].WaitMinutes)
		}
	}
}

func TestEstimate_RemovingHeadShiftsPositionsByOne(t *testing.T) {
	appts := []model.Appointment{
		appt("a", "10:00", model.StatusConfirmed),
		appt("b", "10:45", model.StatusConfirmed),
		appt("c", "11:30", model.StatusConfirmed),
	}

	before := Estimate(appts, 10*time.Minute)
	after := Estimate(appts[1:], 10*time.Minute)

	if len(after) != len(before)-1 {
		t.Fatalf("expected %d entries, got %d", len(before)-1, len(after))
	}
	for i, e := range after {
		if e.Position != before[i+1].Position-1 {
			t.Fatalf("entry %s: expected position %d, got %d", e.AppointmentID, before[i+1].Position-1, e.Position)
		}
	}
}

func TestEstimate_SkipsTerminalStatuses(t *testing.T) {
	appts := []model.Appointment{
		appt("a", "10:00", model.StatusCancelled),
		appt("b", "10:45", model.StatusConfirmed),
		appt("c", "11:30", model.StatusCompleted),
	}

	entries := Estimate(appts, 15*time.Minute)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].AppointmentID != "b" || entries[0].Position != 1 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestWalkInWait_CountsOnlyCheckedIn(t *testing.T) {
	// Three active appointments, one physically present: the walk-in
	// queues behind one person, not three.
	appts := []model.Appointment{
		appt("a", "10:00", model.StatusCheckedIn),
		appt("b", "10:45", model.StatusConfirmed),
		appt("c", "11:30", model.StatusConfirmed),
	}

	wait := WalkInWait(appts, 15*time.Minute)
	if wait != 15*time.Minute {
		t.Fatalf("expected 15m wait, got %s", wait)
	}

	queue := Estimate(appts, 15*time.Minute)
	if len(queue) != 3 {
		t.Fatalf("check-in must not change queue length, got %d", len(queue))
	}
	for i, e := range queue {
		if e.Position != i+1 {
			t.Fatalf("check-in must not reorder the queue: %+v", queue)
		}
	}
}

func TestWalkInWait_Empty(t *testing.T) {
	if wait := WalkInWait(nil, 15*time.Minute); wait != 0 {
		t.Fatalf("expected zero wait, got %s", wait)
	}
}
