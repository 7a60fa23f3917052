package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/availability"
	"github.com/gracechapel/scheduling/internal/booking"
	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/interval"
)

const dateLayout = "2006-01-02"

// timeLayouts accepted for the booking "time" field, tried in order.
var timeLayouts = []string{"3:04 PM", "15:04"}

func getAvailabilityHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resourceID := r.URL.Query().Get("resourceId")
		if resourceID == "" {
			writeError(w, http.StatusBadRequest, "missing_resource_id", "resourceId query parameter is required")
			return
		}

		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		res, err := cfg.Store.GetResource(r.Context(), resourceID)
		if err != nil {
			if errors.Is(err, cms.ErrResourceNotFound) {
				writeError(w, http.StatusNotFound, "resource_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		loc, err := res.Hours.Location()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

		candidates, err := availability.GenerateSlots(day, res.Hours)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		window := interval.Interval{Start: day, End: day.AddDate(0, 0, 1)}

		resp := AvailabilityResponse{
			ResourceID: res.ID,
			Date:       day.Format(dateLayout),
		}

		busy, err := cfg.Gateway.ListBusyIntervals(r.Context(), res.CalendarID, window)
		if err != nil {
			// Degraded path: the day stays bookable in the UI, flagged as
			// possibly stale. Last-known busy intervals beat no data.
			cfg.Log.Warn("busy lookup failed, serving degraded availability",
				zap.String("resource_id", res.ID),
				zap.Error(err))
			resp.Degraded = true
			busy = nil
			if cfg.BusyCache != nil {
				if cached, ok, cacheErr := cfg.BusyCache.Get(r.Context(), res.CalendarID, day); cacheErr == nil && ok {
					busy = cached
				}
			}
		} else if cfg.BusyCache != nil {
			if cacheErr := cfg.BusyCache.Put(r.Context(), res.CalendarID, day, busy); cacheErr != nil {
				cfg.Log.Warn("busy cache write failed", zap.Error(cacheErr))
			}
		}

		for _, s := range availability.Resolve(candidates, busy) {
			resp.Slots = append(resp.Slots, SlotResponse{
				Start:     s.Interval.Start,
				End:       s.Interval.End,
				Available: s.Available,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// The requested wall-clock time is interpreted in the resource's
		// configured timezone, matching how its slots are generated.
		res, err := cfg.Store.GetResource(r.Context(), req.ResourceID)
		if err != nil {
			if errors.Is(err, cms.ErrResourceNotFound) {
				writeError(w, http.StatusNotFound, "resource_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		loc, err := res.Hours.Location()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		start, err := parseSlotStart(req.Date, req.Time, loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, BookingResponse{
				Status: "rejected",
				Reason: "time must be like \"10:00 AM\" and date YYYY-MM-DD",
			})
			return
		}

		conf, err := cfg.Booking.BookResource(r.Context(), res, booking.Request{
			ResourceID:    req.ResourceID,
			Slot:          interval.Interval{Start: start},
			RequesterName: req.RequesterName,
			Contact:       req.RequesterContact,
			Reason:        req.Reason,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			Status: "confirmed",
			Event: &BookedEvent{
				CorrelationID: conf.CorrelationID,
				Start:         conf.Slot.Start,
				End:           conf.Slot.End,
			},
		})
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, BookingResponse{Status: "rejected", Reason: verr.Error()})
	case errors.Is(err, cms.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, "resource_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeJSON(w, http.StatusConflict, BookingResponse{Status: "rejected", Reason: "slot_conflict"})
	case errors.Is(err, calendar.ErrGatewayUnavailable):
		// Booking commits fail loudly; a gateway outage never passes as a
		// confirmed appointment.
		writeJSON(w, http.StatusServiceUnavailable, BookingResponse{Status: "rejected", Reason: "calendar_unavailable"})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func syncEventsHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.CalendarID == "" {
			writeError(w, http.StatusBadRequest, "missing_calendar_id", "calendarId is required")
			return
		}

		events := make([]calendar.DomainEvent, 0, len(req.Events))
		for _, e := range req.Events {
			events = append(events, calendar.DomainEvent{
				CorrelationID: e.CorrelationID,
				Title:         e.Title,
				When:          interval.Interval{Start: e.Start, End: e.End},
				Location:      e.Location,
				Description:   e.Description,
			})
		}

		results := cfg.Sync.SyncMany(r.Context(), req.CalendarID, events)

		resp := SyncResponse{Results: make([]SyncResultResponse, 0, len(results))}
		for _, res := range results {
			item := SyncResultResponse{
				CorrelationID: res.CorrelationID,
				Action:        string(res.Action),
			}
			if res.Err != nil {
				item.Error = res.Err.Error()
			}
			resp.Results = append(resp.Results, item)
		}

		// Partial failure stays a 200: other items may have succeeded and the
		// per-item results tell the operator which events need attention.
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteSyncedHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := chi.URLParam(r, "correlationID")
		calendarID := r.URL.Query().Get("calendarId")
		if calendarID == "" {
			writeError(w, http.StatusBadRequest, "missing_calendar_id", "calendarId query parameter is required")
			return
		}

		if err := cfg.Sync.DeleteSynced(r.Context(), calendarID, correlationID); err != nil {
			if errors.Is(err, calendar.ErrGatewayUnavailable) {
				writeError(w, http.StatusServiceUnavailable, "calendar_unavailable", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DeleteSyncResponse{Status: "deleted"})
	}
}

func parseSlotStart(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, err
	}

	var t time.Time
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
		}
	}
	return time.Time{}, err
}
