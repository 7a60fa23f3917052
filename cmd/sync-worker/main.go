package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/calsync"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/config"
	"github.com/gracechapel/scheduling/internal/db"
	"github.com/gracechapel/scheduling/internal/interval"
)

// sync-worker periodically reconciles CMS events onto their external
// calendars. The core holds no scheduler of its own; this binary is the cron
// trigger calling SyncMany.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic("logger init: " + err.Error())
	}
	defer log.Sync() //nolint:errcheck

	log.Info("sync-worker starting up",
		zap.String("env", cfg.Env),
		zap.String("schedule", cfg.SyncSchedule),
		zap.Duration("horizon", cfg.SyncHorizon))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	var gw calendar.Gateway
	if cfg.CalendarMode == config.CalendarModeMemory {
		mem := calendar.NewMemoryGateway()
		mem.SetDefaultEventDuration(time.Duration(cfg.DefaultEventMinutes) * time.Minute)
		gw = mem
	} else {
		gw, err = calendar.NewGoogleGateway(rootCtx, calendar.GoogleOptions{
			CredentialsFile:      cfg.GoogleCredentials,
			CallTimeout:          cfg.GatewayTimeout,
			SyncHorizon:          cfg.SyncHorizon,
			DefaultEventDuration: time.Duration(cfg.DefaultEventMinutes) * time.Minute,
		})
		if err != nil {
			log.Fatal("calendar gateway error", zap.Error(err))
		}
	}

	store := cms.NewPgStore(pgPool)
	coord := calsync.NewCoordinator(gw, log)

	run := func() { runOnce(rootCtx, store, coord, cfg.SyncHorizon, log) }

	// Run once at startup, then on schedule
	run()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncSchedule, run); err != nil {
		log.Fatal("invalid sync schedule", zap.String("schedule", cfg.SyncSchedule), zap.Error(err))
	}
	scheduler.Start()

	<-rootCtx.Done()
	log.Info("shutdown signal received, stopping sync worker")
	<-scheduler.Stop().Done()
}

func runOnce(ctx context.Context, store cms.Store, coord *calsync.Coordinator, horizon time.Duration, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	window := interval.Interval{Start: start.Add(-horizon), End: start.Add(horizon)}

	items, err := store.ListEventsNeedingSync(runCtx, window)
	if err != nil {
		log.Error("list events needing sync", zap.Error(err))
		return
	}

	byCalendar := make(map[string][]calendar.DomainEvent)
	for _, item := range items {
		byCalendar[item.CalendarID] = append(byCalendar[item.CalendarID], item.Event)
	}

	var created, updated, unchanged, failed int
	for calendarID, events := range byCalendar {
		for _, res := range coord.SyncMany(runCtx, calendarID, events) {
			switch {
			case res.Err != nil:
				failed++
			case res.Action == calsync.ActionCreated:
				created++
			case res.Action == calsync.ActionUpdated:
				updated++
			default:
				unchanged++
			}
		}
	}

	log.Info("sync run complete",
		zap.Int("events", len(items)),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("unchanged", unchanged),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)))
}
