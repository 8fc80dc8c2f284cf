// Package settings materializes shop configuration into an explicit value
// passed into each component, never read ambiently from the environment by
// business logic.
package settings

import (
	"fmt"
	"time"

	"github.com/floorlinehq/floorline/libs/config"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
)

// Shop carries the booking policy for a single shop: operating hours, slot
// granularity, the no-show grace period and the per-person wait constant.
type Shop struct {
	Location    *time.Location
	OpenMinute  int // minutes from midnight, inclusive
	CloseMinute int // minutes from midnight, exclusive
	SlotMinutes int
	GracePeriod time.Duration
	PerPerson   time.Duration
}

// FromEnv builds shop settings from the environment. Defaults match a
// 10:00-18:00 shop with hourly slots, 15 minute grace and 15 minutes of
// estimated wait per queued person.
func FromEnv() (Shop, error) {
	loc, err := time.LoadLocation(config.String("SHOP_TIMEZONE", "UTC"))
	if err != nil {
		return Shop{}, fmt.Errorf("invalid SHOP_TIMEZONE: %w", err)
	}

	open, err := model.SlotMinute(config.String("SHOP_OPEN", "10:00"))
	if err != nil {
		return Shop{}, fmt.Errorf("invalid SHOP_OPEN: %w", err)
	}
	close, err := model.SlotMinute(config.String("SHOP_CLOSE", "18:00"))
	if err != nil {
		return Shop{}, fmt.Errorf("invalid SHOP_CLOSE: %w", err)
	}
	if close <= open {
		return Shop{}, fmt.Errorf("SHOP_CLOSE %d must be after SHOP_OPEN %d", close, open)
	}

	slotMins := config.Int("SLOT_MINUTES", 60)
	if slotMins <= 0 || slotMins > 8*60 {
		return Shop{}, fmt.Errorf("SLOT_MINUTES out of range: %d", slotMins)
	}

	return Shop{
		Location:    loc,
		OpenMinute:  open,
		CloseMinute: close,
		SlotMinutes: slotMins,
		GracePeriod: config.Minutes("GRACE_MINUTES", 15*time.Minute),
		PerPerson:   config.Minutes("WAIT_PER_PERSON_MINUTES", 15*time.Minute),
	}, nil
}

// WithinHours reports whether a slot starting at the given minute fits the
// operating window, leaving room for one full slot before close.
func (s Shop) WithinHours(slotMinute int) bool {
	return slotMinute >= s.OpenMinute && slotMinute+s.SlotMinutes <= s.CloseMinute
}

// OnGrid reports whether the slot minute is aligned to the slot granularity
// relative to opening time.
func (s Shop) OnGrid(slotMinute int) bool {
	if s.SlotMinutes <= 0 {
		return false
	}
	return (slotMinute-s.OpenMinute)%s.SlotMinutes == 0
}
