package api

import "time"

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

type AvailabilityResponse struct {
	ResourceID string         `json:"resourceId"`
	Date       string         `json:"date"`
	Degraded   bool           `json:"degraded"`
	Slots      []SlotResponse `json:"slots"`
}

type BookingRequest struct {
	ResourceID       string `json:"resourceId"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	RequesterName    string `json:"requesterName"`
	RequesterContact string `json:"requesterContact"`
	Reason           string `json:"reason"`
}

type BookedEvent struct {
	CorrelationID string    `json:"correlationId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

type BookingResponse struct {
	Status string       `json:"status"`
	Reason string       `json:"reason,omitempty"`
	Event  *BookedEvent `json:"event,omitempty"`
}

type SyncEventPayload struct {
	CorrelationID string    `json:"correlationId"`
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Location      string    `json:"location,omitempty"`
	Description   string    `json:"description,omitempty"`
}

type SyncRequest struct {
	CalendarID string             `json:"calendarId"`
	Events     []SyncEventPayload `json:"events"`
}

type SyncResultResponse struct {
	CorrelationID string `json:"correlationId"`
	Action        string `json:"action,omitempty"`
	Error         string `json:"error,omitempty"`
}

type SyncResponse struct {
	Results []SyncResultResponse `json:"results"`
}

type DeleteSyncResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
