// Package board keeps the public monitor's view of the floor: per provider,
// the active appointments for the day. State is process-local and rebuilt on
// restart from a reconciliation read plus the live event feed.
package board

import (
	"sort"
	"sync"
	"time"
)

// Event mirrors the queue engine's change feed envelope as it appears on
// the wire.
type Event struct {
	ID            string    `json:"event_id"`
	Type          string    `json:"event_type"`
	Action        string    `json:"action"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	SlotDate      string    `json:"slot_date,omitempty"`
	SlotTime      string    `json:"slot_time,omitempty"`
	Status        string    `json:"status,omitempty"`
	ExpiredIDs    []string  `json:"expired_ids,omitempty"`
	At            time.Time `json:"at"`
}

type Entry struct {
	AppointmentID string `json:"appointment_id"`
	ProviderID    string `json:"provider_id"`
	SlotDate      string `json:"slot_date"`
	SlotTime      string `json:"slot_time"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name,omitempty"`
}

// Board applies events idempotently: a replayed event id is ignored, so
// at-least-once delivery from the broker cannot double-count an entry.
type Board struct {
	mu       sync.Mutex
	entries  map[string]Entry // by appointment id
	seen     map[string]struct{}
	seenFIFO []string
	seenCap  int
}

const defaultSeenCap = 4096

func New() *Board {
	return &Board{
		entries: map[string]Entry{},
		seen:    map[string]struct{}{},
		seenCap: defaultSeenCap,
	}
}

// Load replaces the board with a reconciliation snapshot.
func (b *Board) Load(entries []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]Entry, len(entries))
	for _, e := range entries {
		if active(e.Status) {
			b.entries[e.AppointmentID] = e
		}
	}
}

// Apply folds one event into the board. Returns false for duplicates.
func (b *Board) Apply(ev Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.ID != "" {
		if _, dup := b.seen[ev.ID]; dup {
			return false
		}
		b.remember(ev.ID)
	}

	if len(ev.ExpiredIDs) > 0 {
		for _, id := range ev.ExpiredIDs {
			delete(b.entries, id)
		}
		return true
	}
	if ev.AppointmentID == "" {
		return true
	}

	if !active(ev.Status) {
		delete(b.entries, ev.AppointmentID)
		return true
	}

	entry := b.entries[ev.AppointmentID]
	entry.AppointmentID = ev.AppointmentID
	entry.ProviderID = ev.ProviderID
	entry.SlotDate = ev.SlotDate
	entry.SlotTime = ev.SlotTime
	entry.Status = ev.Status
	b.entries[ev.AppointmentID] = entry
	return true
}

// Snapshot returns the board grouped by provider, slots ascending.
func (b *Board) Snapshot() map[string][]Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := map[string][]Entry{}
	for _, e := range b.entries {
		out[e.ProviderID] = append(out[e.ProviderID], e)
	}
	for provider := range out {
		list := out[provider]
		sort.Slice(list, func(i, j int) bool {
			if list[i].SlotDate != list[j].SlotDate {
				return list[i].SlotDate < list[j].SlotDate
			}
			return list[i].SlotTime < list[j].SlotTime
		})
		out[provider] = list
	}
	return out
}

func (b *Board) remember(id string) {
	if _, ok := b.seen[id]; ok {
		return
	}
	b.seen[id] = struct{}{}
	b.seenFIFO = append(b.seenFIFO, id)
	if len(b.seenFIFO) > b.seenCap {
		oldest := b.seenFIFO[0]
		b.seenFIFO = b.seenFIFO[1:]
		delete(b.seen, oldest)
	}
}

func active(status string) bool {
	switch status {
	case "pending", "confirmed", "checked_in":
		return true
	}
	return false
}
