package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gracechapel/scheduling/internal/interval"
)

// correlationKey is the private extended-property key that carries the CMS
// correlation id inside each synced Google Calendar event. Storing the id on
// the remote event is what makes re-sync idempotent without a local mapping
// table.
const correlationKey = "correlationId"

// GoogleOptions tunes the Google Calendar adapter.
type GoogleOptions struct {
	// CredentialsFile is a service-account JSON key path.
	CredentialsFile string
	// CallTimeout bounds each remote call; timeouts surface as
	// ErrGatewayUnavailable rather than hanging.
	CallTimeout time.Duration
	// SyncHorizon bounds FindEventByCorrelationID to [now-horizon, now+horizon].
	// A tuning parameter, not a correctness requirement.
	SyncHorizon time.Duration
	// DefaultEventDuration applies when a domain event has no end time.
	DefaultEventDuration time.Duration
}

func (o *GoogleOptions) fillDefaults() {
	if o.CallTimeout <= 0 {
		o.CallTimeout = 10 * time.Second
	}
	if o.SyncHorizon <= 0 {
		o.SyncHorizon = 30 * 24 * time.Hour
	}
	if o.DefaultEventDuration <= 0 {
		o.DefaultEventDuration = time.Hour
	}
}

// GoogleGateway implements Gateway against the Google Calendar v3 API.
type GoogleGateway struct {
	svc  *gcal.Service
	opts GoogleOptions
	now  func() time.Time
}

func NewGoogleGateway(ctx context.Context, opts GoogleOptions) (*GoogleGateway, error) {
	opts.fillDefaults()

	clientOpts := []option.ClientOption{option.WithScopes(gcal.CalendarScope)}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleGateway{svc: svc, opts: opts, now: time.Now}, nil
}

func (g *GoogleGateway) ListBusyIntervals(ctx context.Context, calendarID string, window interval.Interval) ([]interval.Interval, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	req := &gcal.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}

	resp, err := g.svc.Freebusy.Query(req).Context(callCtx).Do()
	if err != nil {
		return nil, gatewayErr("freebusy query", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s missing from freebusy response", ErrGatewayUnavailable, calendarID)
	}

	busy := make([]interval.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", period.End, err)
		}
		iv, err := interval.New(start, end)
		if err != nil {
			continue // zero-length periods are occasionally returned; skip them
		}
		busy = append(busy, iv)
	}

	return busy, nil
}

func (g *GoogleGateway) FindEventByCorrelationID(ctx context.Context, calendarID, correlationID string) (*RemoteEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	now := g.now()
	resp, err := g.svc.Events.List(calendarID).
		PrivateExtendedProperty(correlationKey+"="+correlationID).
		TimeMin(now.Add(-g.opts.SyncHorizon).Format(time.RFC3339)).
		TimeMax(now.Add(g.opts.SyncHorizon).Format(time.RFC3339)).
		SingleEvents(true).
		MaxResults(2).
		Context(callCtx).Do()
	if err != nil {
		return nil, gatewayErr("events list", err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	remote, err := fromGoogleEvent(resp.Items[0])
	if err != nil {
		return nil, fmt.Errorf("decode event %s: %w", resp.Items[0].Id, err)
	}
	return remote, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, calendarID string, ev DomainEvent) (*RemoteEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	created, err := g.svc.Events.Insert(calendarID, g.toGoogleEvent(ev)).Context(callCtx).Do()
	if err != nil {
		return nil, gatewayErr("events insert", err)
	}

	remote, err := fromGoogleEvent(created)
	if err != nil {
		return nil, fmt.Errorf("decode created event %s: %w", created.Id, err)
	}
	return remote, nil
}

func (g *GoogleGateway) UpdateEvent(ctx context.Context, calendarID, remoteID string, ev DomainEvent) (*RemoteEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	updated, err := g.svc.Events.Update(calendarID, remoteID, g.toGoogleEvent(ev)).Context(callCtx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return nil, fmt.Errorf("%w: %s on %s", ErrEventNotFound, remoteID, calendarID)
		}
		return nil, gatewayErr("events update", err)
	}

	remote, err := fromGoogleEvent(updated)
	if err != nil {
		return nil, fmt.Errorf("decode updated event %s: %w", updated.Id, err)
	}
	return remote, nil
}

func (g *GoogleGateway) DeleteEvent(ctx context.Context, calendarID, remoteID string) error {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.CallTimeout)
	defer cancel()

	err := g.svc.Events.Delete(calendarID, remoteID).Context(callCtx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			// Already deleted remotely; delete stays idempotent.
			return nil
		}
		return gatewayErr("events delete", err)
	}
	return nil
}

func (g *GoogleGateway) toGoogleEvent(ev DomainEvent) *gcal.Event {
	end := ev.When.End
	if end.IsZero() {
		end = ev.When.Start.Add(g.opts.DefaultEventDuration)
	}

	return &gcal.Event{
		Summary:     ev.Title,
		Location:    ev.Location,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.When.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{correlationKey: ev.CorrelationID},
		},
	}
}

func fromGoogleEvent(ev *gcal.Event) (*RemoteEvent, error) {
	remote := &RemoteEvent{
		RemoteID:    ev.Id,
		Title:       ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
	}

	if ev.ExtendedProperties != nil {
		remote.CorrelationID = ev.ExtendedProperties.Private[correlationKey]
	}

	start, err := parseEventTime(ev.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := parseEventTime(ev.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	remote.When = interval.Interval{Start: start, End: end}

	return remote, nil
}

func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, nil
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	if edt.Date != "" {
		// All-day events carry a date only.
		return time.Parse("2006-01-02", edt.Date)
	}
	return time.Time{}, nil
}

func gatewayErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrGatewayUnavailable, err)
}
