package cms

import (
	"context"
	"errors"

	"github.com/gracechapel/scheduling/internal/interval"
)

var ErrResourceNotFound = errors.New("resource not found")

// Store is the read-only view of the CMS database this service consumes.
// The CMS owns the records; nothing here mutates them.
type Store interface {
	GetResource(ctx context.Context, id string) (*Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)

	// ListEventsNeedingSync returns church events whose interval falls inside
	// the window, for reconciliation onto their calendars.
	ListEventsNeedingSync(ctx context.Context, window interval.Interval) ([]SyncItem, error)
}
