// Package sweeper expires reservations that were never honored: past their
// slot start plus the grace period with no check-in.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/lifecycle"
	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
)

var schedulerActor = lifecycle.Actor{ID: "scheduler", Role: "scheduler"}

type Sweeper struct {
	store    storage.Store
	machine  *lifecycle.Machine
	shop     settings.Shop
	clock    clock.Clock
	events   notify.Publisher
	logger   *slog.Logger
	interval time.Duration
}

func New(store storage.Store, machine *lifecycle.Machine, shop settings.Shop, clk clock.Clock, events notify.Publisher, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		store:    store,
		machine:  machine,
		shop:     shop,
		clock:    clk,
		events:   events,
		logger:   logger,
		interval: interval,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "err", err)
			}
		}
	}
}

// Sweep cancels every pending/confirmed reservation whose grace period has
// elapsed and returns the cancelled ids. Expiry is strict: a reservation at
// exactly slot start + grace is not yet expired. Idempotent by
// construction — cancelled rows are no longer reservations, so an immediate
// re-run finds nothing.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	now := s.clock.Now()

	reservations, err := s.store.Reservations(ctx)
	if err != nil {
		// Nothing cancelled this tick; candidates stay eligible for the next.
		return nil, err
	}

	var cancelled []string
	for _, appt := range reservations {
		start, err := appt.SlotStart(s.shop.Location)
		if err != nil {
			s.logger.Error("unparseable slot on stored appointment", "err", err, "appointment_id", appt.ID)
			continue
		}
		if !now.After(start.Add(s.shop.GracePeriod)) {
			continue
		}

		_, err = s.machine.Transition(ctx, appt.ID, lifecycle.OpExpire, schedulerActor, "no-show: grace period elapsed")
		if err != nil {
			// Checked in or already terminal since the read: leave it alone.
			// Store failures leave the row eligible for the next tick.
			if !errors.Is(err, lifecycle.ErrInvalidTransition) {
				s.logger.Error("sweep cancel failed", "err", err, "appointment_id", appt.ID)
			}
			continue
		}
		cancelled = append(cancelled, appt.ID)
	}

	if len(cancelled) > 0 {
		s.logger.Info("sweep cancelled stale reservations", "count", len(cancelled))
		s.events.Publish(ctx, notify.Event{
			Type:       notify.TypeBatchExpired,
			Action:     "expired",
			ExpiredIDs: cancelled,
			At:         now.UTC(),
		})
	}
	return cancelled, nil
}
