package board

import (
	"testing"
	"time"
)

func changed(id, apptID, provider, slot, status string) Event {
	return Event{
		ID:            id,
		Type:          "queue.appointment.changed.v1",
		Action:        "booked",
		AppointmentID: apptID,
		ProviderID:    provider,
		SlotDate:      "2026-06-05",
		SlotTime:      slot,
		Status:        status,
		At:            time.Date(2026, 6, 5, 13, 0, 0, 0, time.UTC),
	}
}

func TestApply_UpsertAndRemove(t *testing.T) {
	b := New()

	if !b.Apply(changed("e1", "a1", "marcus", "14:00", "confirmed")) {
		t.Fatal("first event rejected")
	}
	if !b.Apply(changed("e2", "a1", "marcus", "14:00", "checked_in")) {
		t.Fatal("status update rejected")
	}

	snap := b.Snapshot()
	if len(snap["marcus"]) != 1 || snap["marcus"][0].Status != "checked_in" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if !b.Apply(changed("e3", "a1", "marcus", "14:00", "completed")) {
		t.Fatal("terminal event rejected")
	}
	if len(b.Snapshot()["marcus"]) != 0 {
		t.Fatal("completed appointment must leave the board")
	}
}

func TestApply_DuplicateEventID(t *testing.T) {
	b := New()

	if !b.Apply(changed("e1", "a1", "marcus", "14:00", "confirmed")) {
		t.Fatal("first delivery rejected")
	}
	if b.Apply(changed("e1", "a1", "marcus", "14:00", "confirmed")) {
		t.Fatal("redelivery must be reported as duplicate")
	}
	if len(b.Snapshot()["marcus"]) != 1 {
		t.Fatal("duplicate must not change the board")
	}
}

func TestApply_BatchExpiry(t *testing.T) {
	b := New()
	b.Apply(changed("e1", "a1", "marcus", "11:00", "confirmed"))
	b.Apply(changed("e2", "a2", "marcus", "12:00", "confirmed"))
	b.Apply(changed("e3", "a3", "deshawn", "12:00", "checked_in"))

	b.Apply(Event{
		ID:         "e4",
		Type:       "queue.appointments.expired.v1",
		Action:     "expired",
		ExpiredIDs: []string{"a1", "a2"},
	})

	snap := b.Snapshot()
	if len(snap["marcus"]) != 0 {
		t.Fatalf("expired entries still on board: %+v", snap["marcus"])
	}
	if len(snap["deshawn"]) != 1 {
		t.Fatalf("unrelated entry lost: %+v", snap)
	}
}

func TestLoad_ReplacesState(t *testing.T) {
	b := New()
	b.Apply(changed("e1", "stale", "marcus", "10:00", "confirmed"))

	b.Load([]Entry{
		{AppointmentID: "a1", ProviderID: "marcus", SlotDate: "2026-06-05", SlotTime: "14:00", Status: "confirmed"},
		{AppointmentID: "a2", ProviderID: "marcus", SlotDate: "2026-06-05", SlotTime: "11:00", Status: "checked_in"},
		{AppointmentID: "a3", ProviderID: "marcus", SlotDate: "2026-06-05", SlotTime: "12:00", Status: "cancelled"},
	})

	snap := b.Snapshot()
	list := snap["marcus"]
	if len(list) != 2 {
		t.Fatalf("expected 2 active entries, got %+v", list)
	}
	// Slots ascending.
	if list[0].AppointmentID != "a2" || list[1].AppointmentID != "a1" {
		t.Fatalf("unexpected ordering: %+v", list)
	}
	for _, e := range list {
		if e.AppointmentID == "stale" {
			t.Fatal("reconciliation must drop pre-snapshot state")
		}
	}
}

func TestSeenSetIsBounded(t *testing.T) {
	b := New()
	b.seenCap = 8

	for i := 0; i < 20; i++ {
		b.Apply(changed(string(rune('a'+i)), "a1", "marcus", "14:00", "confirmed"))
	}
	if len(b.seen) > 8 || len(b.seenFIFO) > 8 {
		t.Fatalf("seen set unbounded: %d ids", len(b.seen))
	}
}
