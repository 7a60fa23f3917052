package availability

import (
	"time"

	"github.com/gracechapel/scheduling/internal/interval"
)

// Slot is a candidate bookable interval annotated with availability.
// Slots are derived per request and never persisted.
type Slot struct {
	Interval  interval.Interval
	Available bool
}

// GenerateSlots produces the canonical candidate slots for one day. Slots are
// anchored to StartHour on fixed boundaries, never to the current time, so the
// output is a pure function of its inputs. If the slot duration does not
// evenly divide the working window, the trailing partial period is dropped
// rather than emitted truncated.
func GenerateSlots(day time.Time, wh WorkingHours) ([]interval.Interval, error) {
	if err := wh.Validate(); err != nil {
		return nil, err
	}

	loc, err := wh.Location()
	if err != nil {
		return nil, err
	}

	windowStart := time.Date(day.Year(), day.Month(), day.Day(), wh.StartHour, 0, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), wh.EndHour, 0, 0, 0, loc)
	step := wh.SlotDuration()

	var slots []interval.Interval
	for start := windowStart; !start.Add(step).After(windowEnd); start = start.Add(step) {
		iv, err := interval.New(start, start.Add(step))
		if err != nil {
			return nil, err
		}
		slots = append(slots, iv)
	}

	return slots, nil
}

// Resolve marks each candidate slot available unless some busy interval
// overlaps it. Pure given its inputs; the caller owns fetching busy intervals
// and must treat a failed fetch as "availability unknown", never as an empty
// busy list.
func Resolve(candidates []interval.Interval, busy []interval.Interval) []Slot {
	slots := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		s := Slot{Interval: c, Available: true}
		for _, b := range busy {
			if c.Overlaps(b) {
				s.Available = false
				break
			}
		}
		slots = append(slots, s)
	}
	return slots
}
