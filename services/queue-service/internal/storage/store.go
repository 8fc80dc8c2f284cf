package storage

import (
	"context"
	"errors"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
)

var (
	// ErrNotFound: no appointment with that id.
	ErrNotFound = errors.New("appointment not found")
	// ErrSlotTaken: an active appointment already holds the slot key.
	ErrSlotTaken = errors.New("slot already reserved")
	// ErrStaleStatus: the guarded status update matched no row because the
	// current status was not among the expected set.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
	// ErrUnavailable: the backing store failed; callers may retry.
	ErrUnavailable = errors.New("appointment store unavailable")
)

// Store is the persistence contract the engine consumes. Implementations:
// Postgres (production) and Memory (tests, database-less dev runs).
type Store interface {
	// Insert persists a new appointment and assigns its id. Returns
	// ErrSlotTaken when an active appointment already occupies the slot.
	Insert(ctx context.Context, appt *model.Appointment) error

	Get(ctx context.Context, id string) (model.Appointment, error)

	// ActiveBySlot returns active appointments holding the exact slot key.
	// With slot uniqueness enforced it returns at most one row.
	ActiveBySlot(ctx context.Context, providerID, date, slot string) ([]model.Appointment, error)

	// ActiveByProviderDay is the daily queue view source: active
	// appointments for one provider and date, ordered by slot ascending.
	ActiveByProviderDay(ctx context.Context, providerID, date string) ([]model.Appointment, error)

	// ActiveOn returns all active appointments for a date across providers.
	ActiveOn(ctx context.Context, date string) ([]model.Appointment, error)

	// CheckedIn returns appointments physically present on the date.
	CheckedIn(ctx context.Context, date string) ([]model.Appointment, error)

	// Reservations returns every pending/confirmed appointment; the sweeper
	// applies the grace-period cutoff itself with its injected clock.
	Reservations(ctx context.Context) ([]model.Appointment, error)

	// UpdateStatus applies a guarded transition: the row moves to the target
	// status only if its current status is in from. Returns ErrStaleStatus
	// when the guard fails and ErrNotFound when the id does not exist.
	UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status, at time.Time, reason string) (model.Appointment, error)

	// ListDay returns all appointments (any status) for a provider and
	// date, ordered by slot ascending.
	ListDay(ctx context.Context, providerID, date string) ([]model.Appointment, error)
}
