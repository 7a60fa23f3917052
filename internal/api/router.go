package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/booking"
	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/calsync"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/interval"
)

// BusyCache is the slice of the busy-interval cache the availability handler
// needs. *cache.BusyCache satisfies it.
type BusyCache interface {
	Put(ctx context.Context, calendarID string, day time.Time, busy []interval.Interval) error
	Get(ctx context.Context, calendarID string, day time.Time) ([]interval.Interval, bool, error)
}

type RouterConfig struct {
	Store     cms.Store
	Gateway   calendar.Gateway
	Booking   *booking.Workflow
	Sync      *calsync.Coordinator
	BusyCache BusyCache     // optional; feeds the degraded availability path
	PgPool    *pgxpool.Pool // optional; health probe only
	Redis     *redis.Client // optional; health probe only
	Log       *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Scheduling endpoints
	r.Get("/availability", getAvailabilityHandler(cfg))
	r.Post("/bookings", createBookingHandler(cfg))
	r.Post("/sync", syncEventsHandler(cfg))
	r.Delete("/sync/{correlationID}", deleteSyncedHandler(cfg))

	return r
}
