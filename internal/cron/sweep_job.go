package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/citypulse-backend/internal/evaluation"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"go.uber.org/multierr"
)

const (
	RealtimeSweepJobName = "realtime-sweep"
	CulturalSweepJobName = "cultural-sweep"
)

type activeUsers interface {
	ForEachActive(ctx context.Context, interest enums.InterestCategory, fn func(models.User) error) error
}

type userSweeper interface {
	SweepUser(ctx context.Context, user models.User, sel triggers.Selector) (evaluation.SweepResult, error)
}

// SweepJobParams configure a population sweep. An empty Interest sweeps every
// active user; a nil Selector evaluates every enabled strategy.
type SweepJobParams struct {
	Name      string
	Logger    *logger.Logger
	Users     activeUsers
	Evaluator userSweeper
	Interest  enums.InterestCategory
	Selector  triggers.Selector
}

func NewSweepJob(params SweepJobParams) (Job, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("sweep job name required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users collaborator required")
	}
	if params.Evaluator == nil {
		return nil, fmt.Errorf("evaluator required")
	}
	return &sweepJob{
		name:      params.Name,
		logg:      params.Logger,
		users:     params.Users,
		evaluator: params.Evaluator,
		interest:  params.Interest,
		selector:  params.Selector,
	}, nil
}

type sweepJob struct {
	name      string
	logg      *logger.Logger
	users     activeUsers
	evaluator userSweeper
	interest  enums.InterestCategory
	selector  triggers.Selector
}

func (j *sweepJob) Name() string { return j.name }

type sweepSummary struct {
	users       int
	failedUsers int
	evaluation.SweepResult
}

// Run evaluates every matching user. A failing user is logged and counted but
// never aborts the sweep; only a failure to list users fails the run.
func (j *sweepJob) Run(ctx context.Context) error {
	var summary sweepSummary
	var userErrs error

	err := j.users.ForEachActive(ctx, j.interest, func(user models.User) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.users++
		result, err := j.evaluator.SweepUser(ctx, user, j.selector)
		if err != nil {
			summary.failedUsers++
			userErrs = multierr.Append(userErrs, fmt.Errorf("user %s: %w", user.ID, err))
			return nil
		}
		summary.Evaluated += result.Evaluated
		summary.Triggered += result.Triggered
		summary.Suppressed += result.Suppressed
		summary.Dispatched += result.Dispatched
		summary.Faults += result.Faults
		return nil
	})

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"users":        summary.users,
		"evaluated":    summary.Evaluated,
		"triggered":    summary.Triggered,
		"suppressed":   summary.Suppressed,
		"dispatched":   summary.Dispatched,
		"faults":       summary.Faults,
		"failed_users": summary.failedUsers,
	})
	if userErrs != nil {
		j.logg.Error(logCtx, "sweep finished with user failures", userErrs)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(logCtx, "sweep complete")
	return nil
}
