package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BookingDetails is what the CMS needs to send a confirmation email. Email
// composition and delivery stay on the CMS side; this package only delivers
// the notification request.
type BookingDetails struct {
	ResourceID   string    `json:"resourceId"`
	ResourceName string    `json:"resourceName"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Reason       string    `json:"reason,omitempty"`
}

// Notifier delivers a booking confirmation. Callers treat it as
// fire-and-forget: a failure is logged, never fatal to the booking.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, contact string, details BookingDetails) error
}

// CMSNotifier posts confirmations to the CMS notification endpoint.
type CMSNotifier struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewCMSNotifier(url string, timeout time.Duration, log *zap.Logger) *CMSNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CMSNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (n *CMSNotifier) SendBookingConfirmation(ctx context.Context, contact string, details BookingDetails) error {
	payload := struct {
		Contact string         `json:"contact"`
		Booking BookingDetails `json:"booking"`
	}{Contact: contact, Booking: details}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build confirmation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send confirmation: cms returned %d", resp.StatusCode)
	}

	n.log.Info("booking confirmation dispatched", zap.String("contact", contact))
	return nil
}

// NopNotifier drops confirmations; used when no CMS endpoint is configured.
type NopNotifier struct{}

func (NopNotifier) SendBookingConfirmation(context.Context, string, BookingDetails) error {
	return nil
}
