package calendar

import (
	"context"
	"errors"

	"github.com/gracechapel/scheduling/internal/interval"
)

// ErrGatewayUnavailable covers transport, auth, and timeout failures talking
// to the external calendar. Callers must never interpret it as "no busy
// intervals" or "event absent".
var ErrGatewayUnavailable = errors.New("calendar gateway unavailable")

// ErrEventNotFound reports an update aimed at a remote event that no longer
// exists. Kept distinct from ErrGatewayUnavailable so a stale remote id is
// never mistaken for an outage.
var ErrEventNotFound = errors.New("remote event not found")

// DomainEvent is the CMS's authoritative event record. The scheduling core
// treats it as read-only input; the CorrelationID is minted by the CMS and is
// stable for the life of the event. When.End may be zero for records entered
// without an end time; gateways apply their configured default duration.
type DomainEvent struct {
	CorrelationID string
	Title         string
	When          interval.Interval
	Location      string
	Description   string
}

// RemoteEvent is the external calendar's representation of an event. The
// CorrelationID round-trips through the provider's free-form/extended
// property so a previously synced event can be found again without a local
// mapping table.
type RemoteEvent struct {
	RemoteID      string
	CorrelationID string
	Title         string
	When          interval.Interval
	Location      string
	Description   string
}

// Gateway is the capability interface over one external calendar provider.
// Every operation is scoped to a single calendar id.
type Gateway interface {
	// ListBusyIntervals returns the calendar's busy periods inside the window.
	ListBusyIntervals(ctx context.Context, calendarID string, window interval.Interval) ([]interval.Interval, error)

	// FindEventByCorrelationID looks up a previously synced event by the
	// correlation id embedded at creation time. The search is bounded to the
	// provider's sync horizon, not a global scan. Returns (nil, nil) when no
	// event matches.
	FindEventByCorrelationID(ctx context.Context, calendarID, correlationID string) (*RemoteEvent, error)

	// CreateEvent materializes the domain event remotely, embedding its
	// correlation id so later FindEventByCorrelationID calls succeed.
	CreateEvent(ctx context.Context, calendarID string, ev DomainEvent) (*RemoteEvent, error)

	UpdateEvent(ctx context.Context, calendarID, remoteID string, ev DomainEvent) (*RemoteEvent, error)

	// DeleteEvent is idempotent: deleting an already-absent event is not an
	// error.
	DeleteEvent(ctx context.Context, calendarID, remoteID string) error
}
