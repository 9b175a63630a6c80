package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const defaultSourceTimeout = 3 * time.Second

// Snapshot is the merged output of every source for one query.
type Snapshot struct {
	Values map[string]any
	Failed []string
}

// Collector fans a query out to every source, each under its own timeout.
type Collector struct {
	sources []Source
	timeout time.Duration
	cache   *Cache
	logg    *logger.Logger
}

// CollectorParams configure a Collector. Cache may be nil.
type CollectorParams struct {
	Logger  *logger.Logger
	Sources []Source
	Timeout time.Duration
	Cache   *Cache
}

func NewCollector(params CollectorParams) (*Collector, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	sources := make([]Source, 0, len(params.Sources))
	for _, s := range params.Sources {
		if s != nil {
			sources = append(sources, s)
		}
	}
	return &Collector{
		sources: sources,
		timeout: timeout,
		cache:   params.Cache,
		logg:    params.Logger,
	}, nil
}

// Sources returns the configured source names.
func (c *Collector) Sources() []string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return names
}

// Collect returns the merged snapshot. A failing source is logged and its keys are omitted.
func (c *Collector) Collect(ctx context.Context, q Query) Snapshot {
	snap, _ := c.collect(ctx, q, true)
	return snap
}

// Refresh fetches every source bypassing cached values and repopulates the cache.
func (c *Collector) Refresh(ctx context.Context, q Query) error {
	_, err := c.collect(ctx, q, false)
	return err
}

func (c *Collector) collect(ctx context.Context, q Query, useCache bool) (Snapshot, error) {
	var (
		mu     sync.Mutex
		merged = map[string]any{}
		failed []string
		errs   error
		eg     errgroup.Group
	)

	for _, source := range c.sources {
		key := cacheKey(source.Name(), q)
		if useCache {
			if values, ok := c.cache.get(key); ok {
				mu.Lock()
				mergeInto(merged, values)
				mu.Unlock()
				continue
			}
		}

		eg.Go(func() error {
			values, err := c.fetch(ctx, source, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, source.Name())
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", source.Name(), err))
				logCtx := c.logg.WithField(ctx, "source", source.Name())
				c.logg.Warn(logCtx, fmt.Sprintf("snapshot source unavailable: %v", err))
				return nil
			}
			c.cache.set(key, values)
			mergeInto(merged, values)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Strings(failed)
	return Snapshot{Values: merged, Failed: failed}, errs
}

func (c *Collector) fetch(ctx context.Context, source Source, q Query) (values map[string]any, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	values, err = source.Fetch(fetchCtx, q)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
