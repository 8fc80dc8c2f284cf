package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/floorlinehq/floorline/services/queue-service/internal/outbox"
	"github.com/google/uuid"
)

// Relay publishes each event to the in-process hub and, when an outbox is
// configured, records it for the Kafka publisher. Outbox failures are logged
// and do not fail the originating write: local subscribers already got the
// event, and remote boards reconcile with a full re-fetch on reconnect.
type Relay struct {
	hub    *Hub
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewRelay(hub *Hub, outboxRepo *outbox.Repository, logger *slog.Logger) *Relay {
	return &Relay{hub: hub, outbox: outboxRepo, logger: logger}
}

func (r *Relay) Publish(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	r.hub.Publish(ctx, ev)

	if r.outbox == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("event payload marshal failed", "err", err, "event_type", ev.Type)
		return
	}
	aggregateID := ev.AppointmentID
	if aggregateID == "" {
		aggregateID = ev.SlotDate
	}
	if err := r.outbox.Insert(ctx, outbox.Event{
		EventID:       ev.ID,
		AggregateType: "appointment",
		AggregateID:   aggregateID,
		EventType:     ev.Type,
		Payload:       payload,
	}); err != nil {
		r.logger.Error("outbox insert failed", "err", err, "event_type", ev.Type)
	}
}
