package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gracechapel/scheduling/internal/api"
	"github.com/gracechapel/scheduling/internal/booking"
	"github.com/gracechapel/scheduling/internal/cache"
	"github.com/gracechapel/scheduling/internal/calendar"
	"github.com/gracechapel/scheduling/internal/calsync"
	"github.com/gracechapel/scheduling/internal/cms"
	"github.com/gracechapel/scheduling/internal/config"
	"github.com/gracechapel/scheduling/internal/db"
	"github.com/gracechapel/scheduling/internal/notify"
	redisclient "github.com/gracechapel/scheduling/internal/redis"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := newLogger(cfg.Env)
	defer log.Sync() //nolint:errcheck

	log.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("calendar_mode", cfg.CalendarMode))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres (the CMS database)
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	// Connect Redis when configured; the busy cache is optional. The cache
	// stays a nil interface when Redis is absent so the handlers skip it.
	var rdb *redis.Client
	var busyCache api.BusyCache
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("error closing redis", zap.Error(err))
			}
		}()
		busyCache = cache.NewBusyCache(rdb, cfg.BusyCacheTTL)
		log.Info("connected to Redis")
	}

	gw, err := newGateway(rootCtx, cfg)
	if err != nil {
		log.Fatal("calendar gateway error", zap.Error(err))
	}

	store := cms.NewPgStore(pgPool)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.NotifyURL != "" {
		notifier = notify.NewCMSNotifier(cfg.NotifyURL, 5*time.Second, log)
	}

	router := api.NewRouter(api.RouterConfig{
		Store:     store,
		Gateway:   gw,
		Booking:   booking.NewWorkflow(store, gw, notifier, log),
		Sync:      calsync.NewCoordinator(gw, log),
		BusyCache: busyCache,
		PgPool:    pgPool,
		Redis:     rdb,
		Log:       log,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
}

func newGateway(ctx context.Context, cfg config.Config) (calendar.Gateway, error) {
	if cfg.CalendarMode == config.CalendarModeMemory {
		gw := calendar.NewMemoryGateway()
		gw.SetDefaultEventDuration(time.Duration(cfg.DefaultEventMinutes) * time.Minute)
		return gw, nil
	}
	return calendar.NewGoogleGateway(ctx, calendar.GoogleOptions{
		CredentialsFile:      cfg.GoogleCredentials,
		CallTimeout:          cfg.GatewayTimeout,
		SyncHorizon:          cfg.SyncHorizon,
		DefaultEventDuration: time.Duration(cfg.DefaultEventMinutes) * time.Minute,
	})
}

func newLogger(env string) *zap.Logger {
	var log *zap.Logger
	var err error
	if env == "prod" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("logger init: " + err.Error())
	}
	return log
}
