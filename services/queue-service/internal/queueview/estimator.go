// Package queueview derives queue positions and wait estimates from an
// appointment snapshot. Pure functions: no state is held between calls, so
// every recomputation over a consistent snapshot yields consistent ranks.
package queueview

import (
	"sort"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
)

type Entry struct {
	AppointmentID string `json:"appointment_id"`
	SlotTime      string `json:"slot_time"`
	Status        string `json:"status"`
	Position      int    `json:"position"`
	WaitMinutes   int    `json:"estimated_wait_minutes"`
}

// Estimate orders the active appointments of one provider/day by slot
// ascending (not by creation time: a later slot can be booked first) and
// assigns 1-based positions. The wait estimate is the number of people ahead
// times the configured per-person constant.
func Estimate(appts []model.Appointment, perPerson time.Duration) []Entry {
	active := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status.Active() {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SlotTime < active[j].SlotTime
	})

	perMins := int(perPerson / time.Minute)
	entries := make([]Entry, 0, len(active))
	for i, a := range active {
		entries = append(entries, Entry{
			AppointmentID: a.ID,
			SlotTime:      a.SlotTime,
			Status:        string(a.Status),
			Position:      i + 1,
			WaitMinutes:   i * perMins,
		})
	}
	return entries
}

// WalkInWait projects the wait for a customer with no reservation. Only
// checked_in appointments count: a walk-in queues behind whoever is
// physically present, not behind future bookings.
func WalkInWait(appts []model.Appointment, perPerson time.Duration) time.Duration {
	n := 0
	for _, a := range appts {
		if a.Status == model.StatusCheckedIn {
			n++
		}
	}
	return time.Duration(n) * perPerson
}
