package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gracechapel/scheduling/internal/interval"
)

// MemoryGateway is a mutex-guarded in-memory Gateway. It backs local
// development when no Google credentials are configured and doubles as the
// test fake, so conflict detection and sync can be exercised without a real
// calendar.
type MemoryGateway struct {
	mu              sync.Mutex
	defaultDuration time.Duration
	events          map[string]map[string]RemoteEvent // calendarID -> remoteID -> event
	blocks          map[string][]interval.Interval    // busy periods not owned by events
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		defaultDuration: time.Hour,
		events:          make(map[string]map[string]RemoteEvent),
		blocks:          make(map[string][]interval.Interval),
	}
}

// SetDefaultEventDuration overrides the duration given to events that arrive
// without an end time, matching GoogleOptions.DefaultEventDuration.
func (m *MemoryGateway) SetDefaultEventDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.defaultDuration = d
	}
}

// eventWindow normalizes an end-less event to its default duration. Callers
// hold m.mu.
func (m *MemoryGateway) eventWindow(ev DomainEvent) interval.Interval {
	end := ev.When.End
	if end.IsZero() {
		end = ev.When.Start.Add(m.defaultDuration)
	}
	return interval.Interval{Start: ev.When.Start, End: end}
}

// AddBusyBlock registers a busy period that is not backed by a synced event,
// e.g. an appointment created outside this system.
func (m *MemoryGateway) AddBusyBlock(calendarID string, block interval.Interval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[calendarID] = append(m.blocks[calendarID], block)
}

// Events returns a snapshot of all events on a calendar.
func (m *MemoryGateway) Events(calendarID string) []RemoteEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	evs := make([]RemoteEvent, 0, len(m.events[calendarID]))
	for _, ev := range m.events[calendarID] {
		evs = append(evs, ev)
	}
	return evs
}

func (m *MemoryGateway) ListBusyIntervals(_ context.Context, calendarID string, window interval.Interval) ([]interval.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var busy []interval.Interval
	for _, block := range m.blocks[calendarID] {
		if block.Overlaps(window) {
			busy = append(busy, block)
		}
	}
	for _, ev := range m.events[calendarID] {
		if ev.When.Overlaps(window) {
			busy = append(busy, ev.When)
		}
	}
	return busy, nil
}

func (m *MemoryGateway) FindEventByCorrelationID(_ context.Context, calendarID, correlationID string) (*RemoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ev := range m.events[calendarID] {
		if ev.CorrelationID == correlationID {
			found := ev
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryGateway) CreateEvent(_ context.Context, calendarID string, ev DomainEvent) (*RemoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remote := RemoteEvent{
		RemoteID:      uuid.NewString(),
		CorrelationID: ev.CorrelationID,
		Title:         ev.Title,
		When:          m.eventWindow(ev),
		Location:      ev.Location,
		Description:   ev.Description,
	}

	if m.events[calendarID] == nil {
		m.events[calendarID] = make(map[string]RemoteEvent)
	}
	m.events[calendarID][remote.RemoteID] = remote

	return &remote, nil
}

func (m *MemoryGateway) UpdateEvent(_ context.Context, calendarID, remoteID string, ev DomainEvent) (*RemoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.events[calendarID][remoteID]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrEventNotFound, remoteID, calendarID)
	}

	existing.Title = ev.Title
	existing.When = m.eventWindow(ev)
	existing.Location = ev.Location
	existing.Description = ev.Description
	m.events[calendarID][remoteID] = existing

	return &existing, nil
}

func (m *MemoryGateway) DeleteEvent(_ context.Context, calendarID, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Deleting an absent event is deliberately not an error.
	delete(m.events[calendarID], remoteID)
	return nil
}
