package bootstrap

import (
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/cron"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/internal/triggers/strategies"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/db"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/citypulse-backend/pkg/redis"
)

// JobParams carry what the scheduled jobs need beyond the engine. Redis is
// only required when run-locks are enabled.
type JobParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *pkgredis.Client
	Engine *Engine
}

// SchedulerEntries builds the four cadences: realtime and cultural sweeps,
// snapshot collection and the daily history cleanup.
func SchedulerEntries(params JobParams) ([]cron.Entry, error) {
	cfg, logg, e := params.Config, params.Logger, params.Engine
	if cfg == nil || logg == nil || e == nil || params.DB == nil {
		return nil, fmt.Errorf("config, logger, db and engine required")
	}

	realtime, err := cron.NewSweepJob(cron.SweepJobParams{
		Name:      cron.RealtimeSweepJobName,
		Logger:    logg,
		Users:     e.Users,
		Evaluator: e.Evaluation,
		Selector:  triggers.ExceptTypes(strategies.CulturalTypes()...),
	})
	if err != nil {
		return nil, fmt.Errorf("realtime sweep: %w", err)
	}

	cultural, err := cron.NewSweepJob(cron.SweepJobParams{
		Name:      cron.CulturalSweepJobName,
		Logger:    logg,
		Users:     e.Users,
		Evaluator: e.Evaluation,
		Interest:  enums.InterestCulture,
		Selector:  triggers.OnlyTypes(strategies.CulturalTypes()...),
	})
	if err != nil {
		return nil, fmt.Errorf("cultural sweep: %w", err)
	}

	collection, err := cron.NewDataCollectionJob(cron.DataCollectionJobParams{
		Logger:    logg,
		Users:     e.Users,
		Snapshots: e.Collector,
		Radius:    cfg.Triggers.DefaultRadius,
	})
	if err != nil {
		return nil, fmt.Errorf("data collection: %w", err)
	}

	cleanupParams := cron.HistoryCleanupJobParams{
		Logger:                logg,
		DB:                    params.DB,
		Notifications:         e.History,
		Triggers:              e.Ledger,
		NotificationRetention: cfg.Retention.NotificationDays,
		TriggerRetention:      cfg.Retention.TriggerDays,
		CooldownWindow:        cfg.Triggers.CooldownWindow,
	}
	if e.SQLCooldowns != nil {
		cleanupParams.Cooldowns = e.SQLCooldowns
	}
	cleanup, err := cron.NewHistoryCleanupJob(cleanupParams)
	if err != nil {
		return nil, fmt.Errorf("history cleanup: %w", err)
	}

	cleanupAt, err := cron.DailyAt(cfg.Schedule.CleanupAt, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvCleanupAt, err)
	}

	entries := []cron.Entry{
		{Job: realtime, Schedule: cron.Every(cfg.Schedule.RealtimeInterval)},
		{Job: cultural, Schedule: cron.Every(cfg.Schedule.CulturalInterval)},
		{Job: collection, Schedule: cron.Every(cfg.Schedule.DataCollectionInterval)},
		{Job: cleanup, Schedule: cleanupAt},
	}

	if cfg.Schedule.UseLock {
		if params.Redis == nil {
			return nil, fmt.Errorf("run-locks require a redis client")
		}
		for i := range entries {
			name := entries[i].Job.Name()
			lock, err := cron.NewRedisLock(params.Redis, params.Redis.LockKey(cfg.App.Env, name), lockTTL(entries[i].Schedule))
			if err != nil {
				return nil, fmt.Errorf("%s lock: %w", name, err)
			}
			entries[i].Lock = lock
		}
	}
	return entries, nil
}

// lockTTL is one period of the schedule, capped at an hour.
func lockTTL(s cron.Schedule) time.Duration {
	now := time.Now()
	period := s.Next(now).Sub(now)
	if period <= 0 || period > time.Hour {
		return time.Hour
	}
	return period
}
