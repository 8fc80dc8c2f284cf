package notify

import (
	"context"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
)

// Event types fanned out by the engine. The per-appointment type carries the
// action; the batch type summarizes one sweeper pass.
const (
	TypeAppointmentChanged = "queue.appointment.changed.v1"
	TypeBatchExpired       = "queue.appointments.expired.v1"
)

// Event carries enough for an observer to decide whether to re-fetch
// without inspecting full appointment payloads.
type Event struct {
	ID            string       `json:"event_id"`
	Type          string       `json:"event_type"`
	Action        string       `json:"action"`
	AppointmentID string       `json:"appointment_id,omitempty"`
	ProviderID    string       `json:"provider_id,omitempty"`
	SlotDate      string       `json:"slot_date,omitempty"`
	SlotTime      string       `json:"slot_time,omitempty"`
	Status        model.Status `json:"status,omitempty"`
	ExpiredIDs    []string     `json:"expired_ids,omitempty"`
	At            time.Time    `json:"at"`
}

// Publisher is what writers (guard, state machine, sweeper) emit through.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}
