package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gracechapel/scheduling/internal/interval"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func hours(start, end, slotMinutes int) WorkingHours {
	return WorkingHours{StartHour: start, EndHour: end, SlotMinutes: slotMinutes}
}

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func busy(t *testing.T, startH, startM, endH, endM int) interval.Interval {
	t.Helper()
	iv, err := interval.New(at(startH, startM), at(endH, endM))
	require.NoError(t, err)
	return iv
}

func TestGenerateSlotsNineToFiveHourly(t *testing.T) {
	slots, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)
	require.Len(t, slots, 8)

	require.True(t, slots[0].Start.Equal(at(9, 0)))
	require.True(t, slots[0].End.Equal(at(10, 0)))
	require.True(t, slots[7].Start.Equal(at(16, 0)))
	require.True(t, slots[7].End.Equal(at(17, 0)))

	// Repeated calls yield the same slots; generation is a pure function.
	again, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)
	require.Equal(t, slots, again)
}

func TestGenerateSlotsDropsPartialTrailingPeriod(t *testing.T) {
	// 9:00-17:00 in 50-minute steps: 9 full slots fit (450m of 480m); the
	// remaining 30 minutes must not become a truncated slot.
	slots, err := GenerateSlots(day, hours(9, 17, 50))
	require.NoError(t, err)
	require.Len(t, slots, 9)
	require.True(t, slots[8].End.Equal(at(16, 30)))
}

func TestGenerateSlotsRejectsBadConfig(t *testing.T) {
	_, err := GenerateSlots(day, hours(17, 9, 60))
	require.ErrorIs(t, err, ErrInvalidWorkingHours)

	_, err = GenerateSlots(day, hours(9, 17, 0))
	require.ErrorIs(t, err, ErrInvalidSlotDuration)

	_, err = GenerateSlots(day, WorkingHours{StartHour: 9, EndHour: 17, SlotMinutes: 60, Timezone: "Not/AZone"})
	require.ErrorIs(t, err, ErrInvalidWorkingHours)
}

func TestGenerateSlotsHonorsTimezone(t *testing.T) {
	slots, err := GenerateSlots(day, WorkingHours{StartHour: 9, EndHour: 17, SlotMinutes: 60, Timezone: "America/New_York"})
	require.NoError(t, err)
	require.Len(t, slots, 8)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	require.True(t, slots[0].Start.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, loc)))
}

func TestResolveMarksOverlappingSlotUnavailable(t *testing.T) {
	candidates, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)

	slots := Resolve(candidates, []interval.Interval{busy(t, 11, 0, 11, 30)})
	require.Len(t, slots, 8)

	for _, s := range slots {
		if s.Interval.Start.Equal(at(11, 0)) {
			require.False(t, s.Available, "slot overlapping busy interval must be unavailable")
		} else {
			require.True(t, s.Available, "slot %s should be available", s.Interval)
		}
	}
}

func TestResolveNoBusyIntervalsAllAvailable(t *testing.T) {
	candidates, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)

	for _, s := range Resolve(candidates, nil) {
		require.True(t, s.Available)
	}
}

func TestResolveBusySpanningManySlots(t *testing.T) {
	candidates, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)

	slots := Resolve(candidates, []interval.Interval{busy(t, 10, 30, 13, 15)})

	var unavailable []time.Time
	for _, s := range slots {
		if !s.Available {
			unavailable = append(unavailable, s.Interval.Start)
		}
	}
	require.Equal(t, []time.Time{at(10, 0), at(11, 0), at(12, 0), at(13, 0)}, unavailable)
}

func TestResolveBackToBackBusyDoesNotBlock(t *testing.T) {
	candidates, err := GenerateSlots(day, hours(9, 17, 60))
	require.NoError(t, err)

	// Busy block ends exactly when the 10:00 slot starts.
	slots := Resolve(candidates, []interval.Interval{busy(t, 9, 0, 10, 0)})
	require.False(t, slots[0].Available)
	require.True(t, slots[1].Available)
}
