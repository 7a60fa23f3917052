package calsync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/calendar"
)

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

var ErrMissingCorrelationID = errors.New("domain event has no correlation id")

// Result is the per-event outcome of a sync run.
type Result struct {
	CorrelationID string
	Action        Action
	Remote        *calendar.RemoteEvent
	Err           error
}

// Coordinator reconciles CMS domain events onto an external calendar. It
// keeps no state of its own: the correlation id embedded in each remote
// event is the only link between the two systems, which is what makes
// repeated syncs idempotent across process restarts.
type Coordinator struct {
	gw  calendar.Gateway
	log *zap.Logger
}

func NewCoordinator(gw calendar.Gateway, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{gw: gw, log: log}
}

// SyncOne creates, updates, or leaves alone the remote counterpart of one
// domain event. Re-syncing an unchanged event issues no remote write.
func (c *Coordinator) SyncOne(ctx context.Context, calendarID string, ev calendar.DomainEvent) (Result, error) {
	res := Result{CorrelationID: ev.CorrelationID}

	if ev.CorrelationID == "" {
		res.Err = ErrMissingCorrelationID
		return res, res.Err
	}

	existing, err := c.gw.FindEventByCorrelationID(ctx, calendarID, ev.CorrelationID)
	if err != nil {
		res.Err = fmt.Errorf("find event: %w", err)
		return res, res.Err
	}

	if existing == nil {
		remote, err := c.gw.CreateEvent(ctx, calendarID, ev)
		if err != nil {
			res.Err = fmt.Errorf("create event: %w", err)
			return res, res.Err
		}
		res.Action = ActionCreated
		res.Remote = remote
		c.log.Info("event created on remote calendar",
			zap.String("calendar_id", calendarID),
			zap.String("correlation_id", ev.CorrelationID))
		return res, nil
	}

	if !needsUpdate(existing, ev) {
		res.Action = ActionUnchanged
		res.Remote = existing
		return res, nil
	}

	remote, err := c.gw.UpdateEvent(ctx, calendarID, existing.RemoteID, ev)
	if err != nil {
		res.Err = fmt.Errorf("update event: %w", err)
		return res, res.Err
	}
	res.Action = ActionUpdated
	res.Remote = remote
	c.log.Info("event updated on remote calendar",
		zap.String("calendar_id", calendarID),
		zap.String("correlation_id", ev.CorrelationID),
		zap.String("remote_id", existing.RemoteID))
	return res, nil
}

// SyncMany reconciles a batch. Each event is isolated: one failure never
// aborts the rest, and partial failure is reported per item rather than
// returned as an error.
func (c *Coordinator) SyncMany(ctx context.Context, calendarID string, events []calendar.DomainEvent) []Result {
	results := make([]Result, 0, len(events))
	for _, ev := range events {
		res, err := c.SyncOne(ctx, calendarID, ev)
		if err != nil {
			c.log.Warn("sync failed for event",
				zap.String("calendar_id", calendarID),
				zap.String("correlation_id", ev.CorrelationID),
				zap.Error(err))
		}
		results = append(results, res)
	}
	return results
}

// DeleteSynced removes the remote counterpart of a domain event. Finding
// nothing is a no-op, not an error: the domain event may have been deleted
// after a sync that never ran, or the remote event removed by hand.
func (c *Coordinator) DeleteSynced(ctx context.Context, calendarID, correlationID string) error {
	existing, err := c.gw.FindEventByCorrelationID(ctx, calendarID, correlationID)
	if err != nil {
		return fmt.Errorf("find event: %w", err)
	}
	if existing == nil {
		return nil
	}

	if err := c.gw.DeleteEvent(ctx, calendarID, existing.RemoteID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	c.log.Info("event deleted from remote calendar",
		zap.String("calendar_id", calendarID),
		zap.String("correlation_id", correlationID),
		zap.String("remote_id", existing.RemoteID))
	return nil
}

func needsUpdate(existing *calendar.RemoteEvent, ev calendar.DomainEvent) bool {
	return existing.Title != ev.Title ||
		!existing.When.Equal(ev.When) ||
		existing.Location != ev.Location ||
		existing.Description != ev.Description
}
