package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/citypulse-backend/internal/bootstrap"
	"github.com/angelmondragon/citypulse-backend/internal/cron"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/db"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
	"github.com/angelmondragon/citypulse-backend/pkg/migrate"
	"github.com/angelmondragon/citypulse-backend/pkg/redis"
)

const serviceKind = "trigger-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engine, err := bootstrap.NewEngine(context.Background(), bootstrap.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire trigger engine", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logg.Error(context.Background(), "error closing delivery channels", err)
		}
	}()

	entries, err := bootstrap.SchedulerEntries(bootstrap.JobParams{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
		Engine: engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build scheduled jobs", err)
		os.Exit(1)
	}

	scheduler, err := cron.NewScheduler(cron.SchedulerParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(entries...),
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		RunOnStart: cfg.Schedule.RunOnStart,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"strategies":  len(engine.Registry.Types()),
		"channels":    engine.Channel.Channels(),
	})
	logg.Info(ctx, "starting trigger worker")

	// Sweeps stop first; the dispatcher then drains what they queued.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return engine.Dispatcher.Run(dispatchCtx)
	})
	group.Go(func() error {
		defer stopDispatch()
		return scheduler.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "trigger worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "trigger worker shutting down gracefully")
}
