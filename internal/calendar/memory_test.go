package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gracechapel/scheduling/internal/interval"
)

func TestCreateEventWithoutEndOccupiesDefaultDuration(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	remote, err := gw.CreateEvent(ctx, "cal-1", DomainEvent{
		CorrelationID: "event-choir-practice",
		Title:         "Choir Practice",
		When:          interval.Interval{Start: start},
	})
	require.NoError(t, err)
	require.Equal(t, start, remote.When.Start)
	require.Equal(t, start.Add(time.Hour), remote.When.End)

	day := interval.Interval{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	busy, err := gw.ListBusyIntervals(ctx, "cal-1", day)
	require.NoError(t, err)
	require.NotEmpty(t, busy)
	require.Equal(t, start, busy[0].Start)
	require.Equal(t, start.Add(time.Hour), busy[0].End)
}

func TestCreateEventWithoutEndHonorsConfiguredDuration(t *testing.T) {
	gw := NewMemoryGateway()
	gw.SetDefaultEventDuration(30 * time.Minute)

	start := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	remote, err := gw.CreateEvent(context.Background(), "cal-1", DomainEvent{
		CorrelationID: "event-prayer-meeting",
		Title:         "Prayer Meeting",
		When:          interval.Interval{Start: start},
	})
	require.NoError(t, err)
	require.Equal(t, start.Add(30*time.Minute), remote.When.End)
}

func TestUpdateEventWithoutEndOccupiesDefaultDuration(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	created, err := gw.CreateEvent(ctx, "cal-1", DomainEvent{
		CorrelationID: "event-bible-study",
		Title:         "Bible Study",
		When:          interval.Interval{Start: start, End: start.Add(2 * time.Hour)},
	})
	require.NoError(t, err)

	moved := start.Add(time.Hour)
	updated, err := gw.UpdateEvent(ctx, "cal-1", created.RemoteID, DomainEvent{
		CorrelationID: "event-bible-study",
		Title:         "Bible Study",
		When:          interval.Interval{Start: moved},
	})
	require.NoError(t, err)
	require.Equal(t, moved, updated.When.Start)
	require.Equal(t, moved.Add(time.Hour), updated.When.End)
}

func TestUpdateEventMissingRemoteIDIsNotFound(t *testing.T) {
	gw := NewMemoryGateway()

	start := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	_, err := gw.UpdateEvent(context.Background(), "cal-1", "no-such-id", DomainEvent{
		CorrelationID: "event-bible-study",
		Title:         "Bible Study",
		When:          interval.Interval{Start: start, End: start.Add(time.Hour)},
	})
	require.ErrorIs(t, err, ErrEventNotFound)
	require.NotErrorIs(t, err, ErrGatewayUnavailable)
}
