package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWorkingHours = errors.New("invalid working hours")
	ErrInvalidSlotDuration = errors.New("invalid slot duration")
)

// WorkingHours is the per-resource bookable window configuration, loaded
// from the CMS rather than compiled in.
type WorkingHours struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
	Timezone    string
}

func (wh WorkingHours) Validate() error {
	if wh.StartHour < 0 || wh.EndHour > 24 || wh.StartHour >= wh.EndHour {
		return fmt.Errorf("%w: start=%d end=%d", ErrInvalidWorkingHours, wh.StartHour, wh.EndHour)
	}
	if wh.SlotMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidSlotDuration, wh.SlotMinutes)
	}
	if _, err := wh.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidWorkingHours, wh.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone, defaulting to UTC when unset.
func (wh WorkingHours) Location() (*time.Location, error) {
	if wh.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(wh.Timezone)
}

func (wh WorkingHours) SlotDuration() time.Duration {
	return time.Duration(wh.SlotMinutes) * time.Minute
}
