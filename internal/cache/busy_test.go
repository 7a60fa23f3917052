package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gracechapel/scheduling/internal/interval"
)

func TestBusyKeyIsScopedToCalendarAndDay(t *testing.T) {
	day := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	require.Equal(t, "busy:counselor-a@gracechapel.test:2025-03-10", busyKey("counselor-a@gracechapel.test", day))

	// Any instant within the day maps to the same key.
	require.Equal(t, busyKey("cal", day), busyKey("cal", day.Add(7*time.Hour)))
}

func TestBusyEncodeDecodeRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	busy := []interval.Interval{
		{
			Start: time.Date(2025, 3, 10, 11, 0, 0, 0, loc),
			End:   time.Date(2025, 3, 10, 11, 30, 0, 0, loc),
		},
		{
			Start: time.Date(2025, 3, 10, 15, 0, 0, 0, loc),
			End:   time.Date(2025, 3, 10, 16, 0, 0, 0, loc),
		},
	}

	data, err := encodeBusy(busy)
	require.NoError(t, err)

	got, err := decodeBusy(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range busy {
		require.True(t, got[i].Start.Equal(busy[i].Start))
		require.True(t, got[i].End.Equal(busy[i].End))
	}
}

func TestBusyEncodeDecodeEmpty(t *testing.T) {
	data, err := encodeBusy(nil)
	require.NoError(t, err)

	got, err := decodeBusy(data)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNewBusyCacheDefaultsTTL(t *testing.T) {
	c := NewBusyCache(nil, 0)
	require.Equal(t, 15*time.Minute, c.ttl)

	c = NewBusyCache(nil, time.Minute)
	require.Equal(t, time.Minute, c.ttl)
}
