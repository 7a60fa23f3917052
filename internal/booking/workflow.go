package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/availability"
	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/interval"
	"github.com/gracechapel/scheduling/internal/notify"
)

var ErrSlotConflict = errors.New("requested slot is no longer available")

// ValidationError reports malformed or missing booking input. It is
// user-correctable and reported verbatim to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Request is a transient booking attempt; it is never persisted on its own.
// Slot.End may be zero, in which case the slot is matched by start time and
// the generated slot's end applies.
type Request struct {
	ResourceID    string
	Slot          interval.Interval
	RequesterName string
	Contact       string
	Reason        string
}

// Confirmation is the successful outcome of a booking attempt.
type Confirmation struct {
	CorrelationID string
	Resource      *cms.Resource
	Slot          interval.Interval
	Remote        *calendar.RemoteEvent
}

// Workflow books appointments: validate, re-check availability at commit
// time, create the remote event, then fire the confirmation notification.
//
// Race avoidance is best-effort only. The availability re-check narrows the
// window between check and commit, but without a provider-side lock two
// concurrent requests for the same slot can both pass the check and both
// book. Neither request corrupts state when that happens; both events land
// on the calendar and the conflict is visible to operators.
type Workflow struct {
	store    cms.Store
	gw       calendar.Gateway
	notifier notify.Notifier
	log      *zap.Logger
}

func NewWorkflow(store cms.Store, gw calendar.Gateway, notifier notify.Notifier, log *zap.Logger) *Workflow {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{store: store, gw: gw, notifier: notifier, log: log}
}

func (w *Workflow) Book(ctx context.Context, req Request) (*Confirmation, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	res, err := w.store.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", req.ResourceID, err)
	}

	return w.BookResource(ctx, res, req)
}

// BookResource books against a resource the caller has already loaded,
// saving the extra lookup when the HTTP layer needed the resource anyway to
// interpret the requested wall-clock time.
func (w *Workflow) BookResource(ctx context.Context, res *cms.Resource, req Request) (*Confirmation, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	loc, err := res.Hours.Location()
	if err != nil {
		return nil, fmt.Errorf("resource %s timezone: %w", res.ID, err)
	}

	day := req.Slot.Start.In(loc)
	candidates, err := availability.GenerateSlots(day, res.Hours)
	if err != nil {
		return nil, fmt.Errorf("generate slots for %s: %w", res.ID, err)
	}

	// Availability is re-resolved here, at commit time. A client claim that
	// the slot was free a minute ago is never trusted.
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	window := interval.Interval{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	busyIntervals, err := w.gw.ListBusyIntervals(ctx, res.CalendarID, window)
	if err != nil {
		return nil, fmt.Errorf("busy lookup for %s: %w", res.CalendarID, err)
	}

	slot, ok := matchSlot(availability.Resolve(candidates, busyIntervals), req.Slot)
	if !ok {
		return nil, &ValidationError{Field: "time", Msg: "not a bookable slot for this resource"}
	}
	if !slot.Available {
		return nil, ErrSlotConflict
	}

	ev := calendar.DomainEvent{
		CorrelationID: "booking-" + uuid.NewString(),
		Title:         appointmentTitle(req),
		When:          slot.Interval,
		Location:      res.Name,
		Description:   appointmentDescription(req),
	}

	remote, err := w.gw.CreateEvent(ctx, res.CalendarID, ev)
	if err != nil {
		// No partial state: nothing was written locally, and a failed create
		// leaves nothing behind remotely.
		return nil, fmt.Errorf("create appointment event: %w", err)
	}

	w.log.Info("booking confirmed",
		zap.String("resource_id", res.ID),
		zap.String("correlation_id", ev.CorrelationID),
		zap.Time("start", slot.Interval.Start))

	w.dispatchConfirmation(req, res, slot.Interval)

	return &Confirmation{
		CorrelationID: ev.CorrelationID,
		Resource:      res,
		Slot:          slot.Interval,
		Remote:        remote,
	}, nil
}

// dispatchConfirmation fires the notification without blocking the caller.
// The booking is already durably recorded on the remote calendar, so a
// notification failure is logged and otherwise ignored.
func (w *Workflow) dispatchConfirmation(req Request, res *cms.Resource, slot interval.Interval) {
	details := notify.BookingDetails{
		ResourceID:   res.ID,
		ResourceName: res.Name,
		Start:        slot.Start,
		End:          slot.End,
		Reason:       req.Reason,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := w.notifier.SendBookingConfirmation(ctx, req.Contact, details); err != nil {
			w.log.Warn("booking confirmation failed",
				zap.String("contact", req.Contact),
				zap.Error(err))
		}
	}()
}

func validate(req Request) error {
	if strings.TrimSpace(req.ResourceID) == "" {
		return &ValidationError{Field: "resourceId", Msg: "required"}
	}
	if strings.TrimSpace(req.Contact) == "" {
		return &ValidationError{Field: "requesterContact", Msg: "required"}
	}
	if req.Slot.Start.IsZero() {
		return &ValidationError{Field: "time", Msg: "required"}
	}
	if !req.Slot.End.IsZero() && !req.Slot.Start.Before(req.Slot.End) {
		return &ValidationError{Field: "time", Msg: "start must be before end"}
	}
	return nil
}

func matchSlot(slots []availability.Slot, want interval.Interval) (availability.Slot, bool) {
	for _, s := range slots {
		if want.End.IsZero() {
			if s.Interval.Start.Equal(want.Start) {
				return s, true
			}
			continue
		}
		if s.Interval.Equal(want) {
			return s, true
		}
	}
	return availability.Slot{}, false
}

func appointmentTitle(req Request) string {
	name := strings.TrimSpace(req.RequesterName)
	if name == "" {
		name = req.Contact
	}
	return "Counseling Appointment - " + name
}

func appointmentDescription(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requested by: %s", req.Contact)
	if req.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", req.Reason)
	}
	return b.String()
}
