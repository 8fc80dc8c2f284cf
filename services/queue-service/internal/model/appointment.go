package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment. Pending and confirmed are
// both "reserved, not yet arrived"; pending marks externally ingested
// bookings and is treated identically everywhere.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the non-terminal states that occupy a slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is the central record: one customer holding one slot with one
// provider on one day. SlotDate is a shop-local calendar day (YYYY-MM-DD)
// and SlotTime a zero-padded shop-local start time (HH:MM), so the slot key
// sorts and compares as plain strings.
type Appointment struct {
	ID           string
	CustomerName string
	ProviderID   string
	ServiceName  string
	Price        float64
	SlotDate     string
	SlotTime     string
	Status       Status
	CreatedAt    time.Time
	CheckedInAt  *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// SlotKey identifies the uniqueness domain for bookings: at most one
// active appointment per (provider, date, slot).
func (a Appointment) SlotKey() string {
	return a.ProviderID + "|" + a.SlotDate + "|" + a.SlotTime
}

// SlotStart reconstructs the absolute scheduled instant in the shop's
// location.
func (a Appointment) SlotStart(loc *time.Location) (time.Time, error) {
	return SlotStart(a.SlotDate, a.SlotTime, loc)
}

func SlotStart(date, slot string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot date %q: %w", date, err)
	}
	t, err := time.Parse(TimeLayout, slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot time %q: %w", slot, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// SlotMinute converts a HH:MM slot into minutes from midnight.
func SlotMinute(slot string) (int, error) {
	t, err := time.Parse(TimeLayout, slot)
	if err != nil {
		return 0, fmt.Errorf("invalid slot time %q: %w", slot, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
