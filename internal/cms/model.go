package cms

import (
	"time"

	"github.com/gracechapel/scheduling/internal/availability"
	"github.com/gracechapel/scheduling/internal/calendar"
)

// Resource is a bookable entity (a counselor) as the CMS records it: a slug
// id, the external calendar it owns, and its working-hours configuration.
type Resource struct {
	ID         string
	Name       string
	CalendarID string
	Hours      availability.WorkingHours
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SyncItem pairs a CMS event with the calendar it belongs on.
type SyncItem struct {
	CalendarID string
	Event      calendar.DomainEvent
}
