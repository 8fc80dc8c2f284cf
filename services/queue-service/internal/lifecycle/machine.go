// Package lifecycle owns the appointment state machine: which transitions
// exist, who may take them, and the audit/event side effects of each
// accepted one.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/floorlinehq/floorline/services/queue-service/internal/audit"
	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

// ErrInvalidTransition: the event is not allowed from the appointment's
// current status. Reaching this through the UI is a contract mismatch, so
// callers surface and log it rather than swallow it.
var ErrInvalidTransition = errors.New("invalid status transition")

// Op is a lifecycle event.
type Op string

const (
	OpCheckIn  Op = "check_in"
	OpComplete Op = "complete"
	OpCancel   Op = "cancel"
	// OpExpire is the sweeper's cancel: same target state, but the guard
	// excludes checked_in so a customer arriving mid-sweep is never
	// cancelled out from under the provider.
	OpExpire Op = "expire"
)

// Actor identifies who requested a transition, for auditing and for the
// admin override on the check-in day rule.
type Actor struct {
	ID   string
	Role string // customer, provider, admin, scheduler
}

const RoleAdmin = "admin"

var transitions = map[Op]struct {
	from []model.Status
	to   model.Status
}{
	OpCheckIn:  {from: []model.Status{model.StatusPending, model.StatusConfirmed}, to: model.StatusCheckedIn},
	OpComplete: {from: []model.Status{model.StatusCheckedIn}, to: model.StatusCompleted},
	OpCancel:   {from: []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusCheckedIn}, to: model.StatusCancelled},
	OpExpire:   {from: []model.Status{model.StatusPending, model.StatusConfirmed}, to: model.StatusCancelled},
}

type Machine struct {
	store  storage.Store
	shop   settings.Shop
	clock  clock.Clock
	audit  audit.Log
	events notify.Publisher
	logger *slog.Logger
}

func NewMachine(store storage.Store, shop settings.Shop, clk clock.Clock, auditLog audit.Log, events notify.Publisher, logger *slog.Logger) *Machine {
	return &Machine{
		store:  store,
		shop:   shop,
		clock:  clk,
		audit:  auditLog,
		events: events,
		logger: logger,
	}
}

// Transition applies op to the appointment. The store-level guarded update
// (status must still be in the allowed source set) makes concurrent
// transitions on one appointment apply in acceptance order and makes
// terminal states immutable: a lost race or a terminal source both surface
// as ErrInvalidTransition with the record unchanged.
func (m *Machine) Transition(ctx context.Context, appointmentID string, op Op, actor Actor, reason string) (model.Appointment, error) {
	rule, ok := transitions[op]
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, op)
	}

	now := m.clock.Now()

	current, err := m.store.Get(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}

	if op == OpCheckIn && actor.Role != RoleAdmin {
		today := now.In(m.shop.Location).Format(model.DateLayout)
		if current.SlotDate != today {
			return model.Appointment{}, fmt.Errorf("%w: check-in allowed on the appointment day only", ErrInvalidTransition)
		}
	}

	updated, err := m.store.UpdateStatus(ctx, appointmentID, rule.from, rule.to, now.UTC(), reason)
	if err != nil {
		if errors.Is(err, storage.ErrStaleStatus) {
			return model.Appointment{}, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, op, current.Status)
		}
		return model.Appointment{}, err
	}

	if err := m.audit.Record(ctx, audit.Entry{
		AppointmentID: updated.ID,
		Action:        string(op),
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		FromStatus:    string(current.Status),
		ToStatus:      string(updated.Status),
	}); err != nil {
		m.logger.Error("audit record failed", "err", err, "appointment_id", updated.ID)
	}

	m.logger.Info("appointment transition",
		"appointment_id", updated.ID,
		"action", string(op),
		"actor_id", actor.ID,
		"actor_role", actor.Role,
		"from", string(current.Status),
		"to", string(updated.Status),
	)
	m.events.Publish(ctx, notify.Event{
		Type:          notify.TypeAppointmentChanged,
		Action:        string(op),
		AppointmentID: updated.ID,
		ProviderID:    updated.ProviderID,
		SlotDate:      updated.SlotDate,
		SlotTime:      updated.SlotTime,
		Status:        updated.Status,
		At:            now.UTC(),
	})
	return updated, nil
}
