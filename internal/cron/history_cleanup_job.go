package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	HistoryCleanupJobName     = "history-cleanup"
	notificationRetentionDays = 30
	triggerRetentionDays      = 7
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type historyPruner interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type cooldownPruner interface {
	DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// HistoryCleanupJobParams configure retention pruning. Cooldowns is only set when
// the SQL cooldown backend is in use; Redis keys expire on their own.
type HistoryCleanupJobParams struct {
	Logger                *logger.Logger
	DB                    txRunner
	Notifications         historyPruner
	Triggers              historyPruner
	Cooldowns             cooldownPruner
	NotificationRetention int
	TriggerRetention      int
	CooldownWindow        time.Duration
}

func NewHistoryCleanupJob(params HistoryCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Triggers == nil {
		return nil, fmt.Errorf("trigger history ledger required")
	}
	notificationRetention := params.NotificationRetention
	if notificationRetention <= 0 {
		notificationRetention = notificationRetentionDays
	}
	triggerRetention := params.TriggerRetention
	if triggerRetention <= 0 {
		triggerRetention = triggerRetentionDays
	}
	return &historyCleanupJob{
		logg:                  params.Logger,
		db:                    params.DB,
		notifications:         params.Notifications,
		triggers:              params.Triggers,
		cooldowns:             params.Cooldowns,
		notificationRetention: notificationRetention,
		triggerRetention:      triggerRetention,
		cooldownWindow:        params.CooldownWindow,
		now:                   time.Now,
	}, nil
}

type historyCleanupJob struct {
	logg                  *logger.Logger
	db                    txRunner
	notifications         historyPruner
	triggers              historyPruner
	cooldowns             cooldownPruner
	notificationRetention int
	triggerRetention      int
	cooldownWindow        time.Duration
	now                   func() time.Time
}

func (j *historyCleanupJob) Name() string { return HistoryCleanupJobName }

func (j *historyCleanupJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	notificationCutoff := now.Add(-time.Duration(j.notificationRetention) * 24 * time.Hour)
	triggerCutoff := now.Add(-time.Duration(j.triggerRetention) * 24 * time.Hour)

	var notificationsDeleted, triggersDeleted, cooldownsDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.notifications.DeleteOlderThan(ctx, tx, notificationCutoff)
		if err != nil {
			return fmt.Errorf("notification history: %w", err)
		}
		notificationsDeleted = rows

		rows, err = j.triggers.DeleteOlderThan(ctx, tx, triggerCutoff)
		if err != nil {
			return fmt.Errorf("trigger history: %w", err)
		}
		triggersDeleted = rows

		if j.cooldowns != nil && j.cooldownWindow > 0 {
			rows, err = j.cooldowns.DeleteExpired(ctx, tx, now.Add(-j.cooldownWindow))
			if err != nil {
				return fmt.Errorf("cooldowns: %w", err)
			}
			cooldownsDeleted = rows
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("history cleanup: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"notification_cutoff":   notificationCutoff,
		"trigger_cutoff":        triggerCutoff,
		"notifications_deleted": notificationsDeleted,
		"triggers_deleted":      triggersDeleted,
		"cooldowns_deleted":     cooldownsDeleted,
	})
	j.logg.Info(logCtx, "history cleanup complete")
	return nil
}
