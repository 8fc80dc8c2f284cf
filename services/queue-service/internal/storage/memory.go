package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/google/uuid"
)

// Memory is an in-process Store used by the engine tests and by
// database-less dev runs. It enforces the same active-slot uniqueness the
// Postgres partial index does.
type Memory struct {
	mu    sync.Mutex
	appts map[string]model.Appointment
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		appts: map[string]model.Appointment{},
		now:   time.Now,
	}
}

func (m *Memory) Insert(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := appt.SlotKey()
	for _, existing := range m.appts {
		if existing.Status.Active() && existing.SlotKey() == key {
			return ErrSlotTaken
		}
	}

	appt.ID = uuid.NewString()
	appt.CreatedAt = m.now().UTC()
	m.appts[appt.ID] = *appt
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return appt, nil
}

func (m *Memory) ActiveBySlot(_ context.Context, providerID, date, slot string) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.Status.Active() && a.ProviderID == providerID && a.SlotDate == date && a.SlotTime == slot
	}), nil
}

func (m *Memory) ActiveByProviderDay(_ context.Context, providerID, date string) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.Status.Active() && a.ProviderID == providerID && a.SlotDate == date
	}), nil
}

func (m *Memory) ActiveOn(_ context.Context, date string) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.Status.Active() && a.SlotDate == date
	}), nil
}

func (m *Memory) CheckedIn(_ context.Context, date string) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.Status == model.StatusCheckedIn && a.SlotDate == date
	}), nil
}

func (m *Memory) Reservations(_ context.Context) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.Status == model.StatusPending || a.Status == model.StatusConfirmed
	}), nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, from []model.Status, to model.Status, at time.Time, reason string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}

	matched := false
	for _, s := range from {
		if appt.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return model.Appointment{}, ErrStaleStatus
	}

	appt.Status = to
	ts := at
	switch to {
	case model.StatusCheckedIn:
		appt.CheckedInAt = &ts
	case model.StatusCompleted:
		appt.CompletedAt = &ts
	case model.StatusCancelled:
		appt.CancelledAt = &ts
		appt.CancelReason = reason
	}
	m.appts[id] = appt
	return appt, nil
}

func (m *Memory) ListDay(_ context.Context, providerID, date string) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.ProviderID == providerID && a.SlotDate == date
	}), nil
}

func (m *Memory) filter(keep func(model.Appointment) bool) []model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Appointment
	for _, a := range m.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlotDate != out[j].SlotDate {
			return out[i].SlotDate < out[j].SlotDate
		}
		if out[i].SlotTime != out[j].SlotTime {
			return out[i].SlotTime < out[j].SlotTime
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	return out
}
