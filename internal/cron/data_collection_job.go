package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	DataCollectionJobName    = "data-collection"
	defaultCollectionWorkers = 4
)

type snapshotRefresher interface {
	Refresh(ctx context.Context, q snapshot.Query) error
}

type DataCollectionJobParams struct {
	Logger    *logger.Logger
	Users     activeUsers
	Snapshots snapshotRefresher
	Radius    int
	Workers   int
}

// NewDataCollectionJob builds the job that re-warms the snapshot cache for every
// distinct location cell of the active population.
func NewDataCollectionJob(params DataCollectionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users collaborator required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot collector required")
	}
	workers := params.Workers
	if workers <= 0 {
		workers = defaultCollectionWorkers
	}
	return &dataCollectionJob{
		logg:      params.Logger,
		users:     params.Users,
		snapshots: params.Snapshots,
		radius:    params.Radius,
		workers:   workers,
	}, nil
}

type dataCollectionJob struct {
	logg      *logger.Logger
	users     activeUsers
	snapshots snapshotRefresher
	radius    int
	workers   int
}

func (j *dataCollectionJob) Name() string { return DataCollectionJobName }

func (j *dataCollectionJob) Run(ctx context.Context) error {
	cells := map[string]types.Location{}
	err := j.users.ForEachActive(ctx, "", func(user models.User) error {
		if loc := user.LastLocation(); loc != nil {
			if _, seen := cells[loc.Cell()]; !seen {
				cells[loc.Cell()] = *loc
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: list users: %w", DataCollectionJobName, err)
	}

	var (
		mu     sync.Mutex
		errs   error
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, loc := range cells {
		g.Go(func() error {
			if err := j.snapshots.Refresh(gctx, snapshot.Query{Location: loc, Radius: j.radius}); err != nil {
				mu.Lock()
				failed++
				errs = multierr.Append(errs, fmt.Errorf("cell %s: %w", loc.Cell(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cells":        len(cells),
		"failed_cells": failed,
	})
	if errs != nil {
		j.logg.Warn(logCtx, fmt.Sprintf("data collection finished with source failures: %v", errs))
		return nil
	}
	j.logg.Info(logCtx, "data collection complete")
	return nil
}
