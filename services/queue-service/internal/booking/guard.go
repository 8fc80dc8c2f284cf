// Package booking holds the slot reservation guard: it enforces one active
// appointment per provider/date/slot on the write path.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

// ErrInvalidRequest marks a malformed or out-of-policy booking request.
// Never retried automatically; the caller corrects and resubmits.
var ErrInvalidRequest = errors.New("invalid booking request")

type Request struct {
	CustomerName string
	ProviderID   string
	ServiceName  string
	Price        float64
	SlotDate     string
	SlotTime     string
}

type Guard struct {
	store  storage.Store
	shop   settings.Shop
	clock  clock.Clock
	events notify.Publisher
	locks  *slotLocks
	logger *slog.Logger
}

func NewGuard(store storage.Store, shop settings.Shop, clk clock.Clock, events notify.Publisher, logger *slog.Logger) *Guard {
	return &Guard{
		store:  store,
		shop:   shop,
		clock:  clk,
		events: events,
		locks:  newSlotLocks(),
		logger: logger,
	}
}

// Reserve turns a booking request into a conflict-free slot assignment.
//
// The check-then-insert sequence runs under a per-slot-key lock, so two
// requests for the same slot in this process never interleave. Across
// processes the store's partial unique index is the backstop: a racing
// insert fails with storage.ErrSlotTaken instead of double-booking.
func (g *Guard) Reserve(ctx context.Context, req Request) (model.Appointment, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.ServiceName = strings.TrimSpace(req.ServiceName)

	if err := g.validate(req); err != nil {
		return model.Appointment{}, err
	}

	release := g.locks.acquire(req.ProviderID + "|" + req.SlotDate + "|" + req.SlotTime)
	defer release()

	existing, err := g.store.ActiveBySlot(ctx, req.ProviderID, req.SlotDate, req.SlotTime)
	if err != nil {
		return model.Appointment{}, err
	}
	if len(existing) > 0 {
		return model.Appointment{}, storage.ErrSlotTaken
	}

	appt := model.Appointment{
		CustomerName: req.CustomerName,
		ProviderID:   req.ProviderID,
		ServiceName:  req.ServiceName,
		Price:        req.Price,
		SlotDate:     req.SlotDate,
		SlotTime:     req.SlotTime,
		Status:       model.StatusConfirmed,
	}
	if err := g.store.Insert(ctx, &appt); err != nil {
		return model.Appointment{}, err
	}

	g.logger.Info("slot reserved",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"slot_date", appt.SlotDate,
		"slot_time", appt.SlotTime,
	)
	g.events.Publish(ctx, notify.Event{
		Type:          notify.TypeAppointmentChanged,
		Action:        "booked",
		AppointmentID: appt.ID,
		ProviderID:    appt.ProviderID,
		SlotDate:      appt.SlotDate,
		SlotTime:      appt.SlotTime,
		Status:        appt.Status,
		At:            g.clock.Now().UTC(),
	})
	return appt, nil
}

func (g *Guard) validate(req Request) error {
	if req.CustomerName == "" || req.ProviderID == "" || req.ServiceName == "" {
		return fmt.Errorf("%w: missing required fields", ErrInvalidRequest)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidRequest)
	}

	slotStart, err := model.SlotStart(req.SlotDate, req.SlotTime, g.shop.Location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if slotStart.Before(g.clock.Now()) {
		return fmt.Errorf("%w: slot is in the past", ErrInvalidRequest)
	}

	minute, err := model.SlotMinute(req.SlotTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !g.shop.WithinHours(minute) {
		return fmt.Errorf("%w: slot outside operating hours", ErrInvalidRequest)
	}
	if !g.shop.OnGrid(minute) {
		return fmt.Errorf("%w: slot not aligned to %d minute grid", ErrInvalidRequest, g.shop.SlotMinutes)
	}
	return nil
}
