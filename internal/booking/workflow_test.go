package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gracechapel/scheduling/internal/availability"
	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/interval"
	"github.com/gracechapel/scheduling/internal/notify"
)

const testCalendar = "counselor-a@gracechapel.test"

type fakeStore struct {
	resources map[string]cms.Resource
}

func newFakeStore() *fakeStore {
	return &fakeStore{resources: map[string]cms.Resource{
		"counselor-a": {
			ID:         "counselor-a",
			Name:       "Counselor A",
			CalendarID: testCalendar,
			Hours:      availability.WorkingHours{StartHour: 9, EndHour: 17, SlotMinutes: 60},
		},
	}}
}

func (s *fakeStore) GetResource(_ context.Context, id string) (*cms.Resource, error) {
	r, ok := s.resources[id]
	if !ok {
		return nil, cms.ErrResourceNotFound
	}
	return &r, nil
}

func (s *fakeStore) ListResources(context.Context) ([]cms.Resource, error) {
	var out []cms.Resource
	for _, r := range s.resources {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) ListEventsNeedingSync(context.Context, interval.Interval) ([]cms.SyncItem, error) {
	return nil, nil
}

type recordingNotifier struct {
	sent chan string
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, contact string, _ notify.BookingDetails) error {
	n.sent <- contact
	return nil
}

func slotAt(t *testing.T, hour int) interval.Interval {
	t.Helper()
	start := time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.Add(time.Hour))
	require.NoError(t, err)
	return iv
}

func validRequest(t *testing.T) Request {
	return Request{
		ResourceID:    "counselor-a",
		Slot:          slotAt(t, 10),
		RequesterName: "Jordan Lee",
		Contact:       "jordan@example.com",
		Reason:        "pre-marital counseling",
	}
}

func TestBookHappyPath(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	notifier := &recordingNotifier{sent: make(chan string, 1)}
	w := NewWorkflow(newFakeStore(), gw, notifier, nil)

	conf, err := w.Book(context.Background(), validRequest(t))
	require.NoError(t, err)
	require.NotNil(t, conf)
	require.True(t, conf.Slot.Equal(slotAt(t, 10)))
	require.NotEmpty(t, conf.CorrelationID)

	events := gw.Events(testCalendar)
	require.Len(t, events, 1)
	require.Equal(t, conf.CorrelationID, events[0].CorrelationID)
	require.True(t, events[0].When.Equal(slotAt(t, 10)))

	select {
	case contact := <-notifier.sent:
		require.Equal(t, "jordan@example.com", contact)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation notification was never dispatched")
	}
}

func TestBookRejectsConflictingSlot(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	// Partial overlap is enough to block the whole slot.
	block, err := interval.New(
		time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 10, 45, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	gw.AddBusyBlock(testCalendar, block)

	w := NewWorkflow(newFakeStore(), gw, nil, nil)

	_, err = w.Book(context.Background(), validRequest(t))
	require.ErrorIs(t, err, ErrSlotConflict)
	require.Empty(t, gw.Events(testCalendar), "a rejected booking must leave no event behind")
}

func TestBookRejectsWhenGatewayDown(t *testing.T) {
	w := NewWorkflow(newFakeStore(), downGateway{}, nil, nil)

	_, err := w.Book(context.Background(), validRequest(t))
	require.ErrorIs(t, err, calendar.ErrGatewayUnavailable,
		"gateway failure must reject the booking, never pass as 'no conflicts'")
}

func TestBookValidation(t *testing.T) {
	w := NewWorkflow(newFakeStore(), calendar.NewMemoryGateway(), nil, nil)

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing resource", func(r *Request) { r.ResourceID = "" }},
		{"missing contact", func(r *Request) { r.Contact = "  " }},
		{"missing time", func(r *Request) { r.Slot = interval.Interval{} }},
		{"inverted time", func(r *Request) { r.Slot.Start, r.Slot.End = r.Slot.End, r.Slot.Start }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(t)
			tc.mutate(&req)

			_, err := w.Book(context.Background(), req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestBookRejectsOffGridSlot(t *testing.T) {
	w := NewWorkflow(newFakeStore(), calendar.NewMemoryGateway(), nil, nil)

	req := validRequest(t)
	req.Slot.Start = req.Slot.Start.Add(30 * time.Minute)
	req.Slot.End = req.Slot.End.Add(30 * time.Minute)

	_, err := w.Book(context.Background(), req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "10:30 is not on the hourly slot grid")
}

func TestBookUnknownResource(t *testing.T) {
	w := NewWorkflow(newFakeStore(), calendar.NewMemoryGateway(), nil, nil)

	req := validRequest(t)
	req.ResourceID = "counselor-z"

	_, err := w.Book(context.Background(), req)
	require.ErrorIs(t, err, cms.ErrResourceNotFound)
}

// countingStore records how many times resources are loaded.
type countingStore struct {
	*fakeStore
	gets int
}

func (s *countingStore) GetResource(ctx context.Context, id string) (*cms.Resource, error) {
	s.gets++
	return s.fakeStore.GetResource(ctx, id)
}

func TestBookResourceSkipsLookup(t *testing.T) {
	store := &countingStore{fakeStore: newFakeStore()}
	gw := calendar.NewMemoryGateway()
	w := NewWorkflow(store, gw, nil, nil)

	res, err := store.GetResource(context.Background(), "counselor-a")
	require.NoError(t, err)

	conf, err := w.BookResource(context.Background(), res, validRequest(t))
	require.NoError(t, err)
	require.NotNil(t, conf)
	require.Equal(t, 1, store.gets, "the caller's load is the only resource lookup")
	require.Len(t, gw.Events(testCalendar), 1)
}

// barrierGateway holds every ListBusyIntervals call until all expected
// callers have arrived, forcing concurrent bookings to re-check availability
// before either commits.
type barrierGateway struct {
	*calendar.MemoryGateway
	barrier *sync.WaitGroup
}

func (b *barrierGateway) ListBusyIntervals(ctx context.Context, calendarID string, window interval.Interval) ([]interval.Interval, error) {
	b.barrier.Done()
	b.barrier.Wait()
	return b.MemoryGateway.ListBusyIntervals(ctx, calendarID, window)
}

// TestConcurrentBookingsCanDoubleBook pins down the documented limitation of
// check-then-commit without a provider-side lock: when both requests pass the
// availability re-check before either commit, both bookings succeed. The
// system must not crash or half-write; it simply records both events.
func TestConcurrentBookingsCanDoubleBook(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)

	gw := &barrierGateway{MemoryGateway: calendar.NewMemoryGateway(), barrier: &barrier}
	w := NewWorkflow(newFakeStore(), gw, nil, nil)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = w.Book(context.Background(), validRequest(t))
		}(i)
	}
	wg.Wait()

	require.NoError(t, results[0])
	require.NoError(t, results[1])
	require.Len(t, gw.Events(testCalendar), 2,
		"both bookings land on the calendar; no partial write, no crash")
}

type downGateway struct{}

func (downGateway) ListBusyIntervals(context.Context, string, interval.Interval) ([]interval.Interval, error) {
	return nil, calendar.ErrGatewayUnavailable
}

func (downGateway) FindEventByCorrelationID(context.Context, string, string) (*calendar.RemoteEvent, error) {
	return nil, calendar.ErrGatewayUnavailable
}

func (downGateway) CreateEvent(context.Context, string, calendar.DomainEvent) (*calendar.RemoteEvent, error) {
	return nil, calendar.ErrGatewayUnavailable
}

func (downGateway) UpdateEvent(context.Context, string, string, calendar.DomainEvent) (*calendar.RemoteEvent, error) {
	return nil, calendar.ErrGatewayUnavailable
}

func (downGateway) DeleteEvent(context.Context, string, string) error {
	return calendar.ErrGatewayUnavailable
}

func TestBookNotificationFailureDoesNotRollBack(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	w := NewWorkflow(newFakeStore(), gw, failingNotifier{}, nil)

	conf, err := w.Book(context.Background(), validRequest(t))
	require.NoError(t, err)
	require.NotNil(t, conf)
	require.Len(t, gw.Events(testCalendar), 1, "booking stays recorded despite notification failure")
}

type failingNotifier struct{}

func (failingNotifier) SendBookingConfirmation(context.Context, string, notify.BookingDetails) error {
	return errors.New("smtp relay down")
}
