// Package bootstrap wires the trigger engine graph shared by the API and the
// trigger worker.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/citypulse-backend/internal/cooldown"
	"github.com/angelmondragon/citypulse-backend/internal/delivery"
	"github.com/angelmondragon/citypulse-backend/internal/dispatch"
	"github.com/angelmondragon/citypulse-backend/internal/evaluation"
	"github.com/angelmondragon/citypulse-backend/internal/notifications"
	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/internal/triggers/strategies"
	"github.com/angelmondragon/citypulse-backend/internal/triggerstate"
	"github.com/angelmondragon/citypulse-backend/internal/users"
	"github.com/angelmondragon/citypulse-backend/pkg/config"
	"github.com/angelmondragon/citypulse-backend/pkg/db"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
	"github.com/angelmondragon/citypulse-backend/pkg/pubsub"
	pkgredis "github.com/angelmondragon/citypulse-backend/pkg/redis"
)

const (
	ChannelLog    = "log"
	ChannelFCM    = "fcm"
	ChannelPubSub = "pubsub"
)

// Params carry the process-level dependencies. Registerer defaults to the
// prometheus default registerer.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *pkgredis.Client
	Registerer prometheus.Registerer
}

// Engine is the assembled trigger pipeline.
type Engine struct {
	Registry      *triggers.Registry
	Evaluation    *evaluation.Service
	Users         *users.Service
	Notifications notifications.Service
	History       notifications.Repository
	Ledger        *cooldown.Ledger
	SQLCooldowns  *cooldown.SQLStore
	Collector     *snapshot.Collector
	Queue         *dispatch.Queue
	Dispatcher    *dispatch.Dispatcher
	Channel       *delivery.Multi

	closers []func() error
}

func NewEngine(ctx context.Context, params Params) (*Engine, error) {
	switch {
	case params.Config == nil:
		return nil, fmt.Errorf("config required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	}
	reg := params.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cfg := params.Config
	logg := params.Logger
	conn := params.DB.DB()

	e := &Engine{}
	ok := false
	defer func() {
		if !ok {
			_ = e.Close()
		}
	}()

	registry, err := NewRegistry(cfg.Triggers)
	if err != nil {
		return nil, err
	}
	states, err := triggerstate.NewStore(conn)
	if err != nil {
		return nil, err
	}
	if err := registry.Attach(ctx, states, cfg.Triggers.StateRefresh); err != nil {
		return nil, fmt.Errorf("strategy states: %w", err)
	}
	e.Registry = registry

	triggerMetrics := metrics.NewTriggerMetrics(reg)
	dispatchMetrics := metrics.NewDispatchMetrics(reg)

	engine, err := triggers.NewEngine(registry, logg, triggerMetrics)
	if err != nil {
		return nil, fmt.Errorf("trigger engine: %w", err)
	}

	e.Users, err = users.NewService(users.NewRepository(conn), cfg.Triggers.ActiveWithin, cfg.Triggers.SweepPageSize)
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	e.History = notifications.NewRepository(conn)
	e.Notifications, err = notifications.NewService(e.History)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	e.Ledger = cooldown.NewLedger(conn)
	store, err := e.cooldownStore(cfg.Triggers, params)
	if err != nil {
		return nil, err
	}
	guard, err := cooldown.NewGuard(cooldown.GuardParams{
		Logger:  logg,
		Store:   store,
		Ledger:  e.Ledger,
		Window:  cfg.Triggers.CooldownWindow,
		Metrics: triggerMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("cooldown guard: %w", err)
	}

	e.Collector, err = snapshot.NewCollector(snapshot.CollectorParams{
		Logger:  logg,
		Sources: Sources(cfg.Snapshots, logg),
		Timeout: cfg.Snapshots.Timeout,
		Cache:   snapshot.NewCache(cfg.Snapshots.CacheTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot collector: %w", err)
	}

	builder, err := evaluation.NewContextBuilder(evaluation.BuilderParams{
		Logger:        logg,
		Users:         e.Users,
		Snapshots:     e.Collector,
		History:       e.Ledger,
		DefaultRadius: cfg.Triggers.DefaultRadius,
	})
	if err != nil {
		return nil, fmt.Errorf("context builder: %w", err)
	}

	e.Queue, err = dispatch.NewQueue(cfg.Dispatch.QueueSize, logg, dispatchMetrics)
	if err != nil {
		return nil, fmt.Errorf("dispatch queue: %w", err)
	}

	e.Channel, err = e.deliveryChannel(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	e.Dispatcher, err = dispatch.NewDispatcher(dispatch.DispatcherParams{
		Logger:          logg,
		Queue:           e.Queue,
		History:         e.Notifications,
		Users:           e.Users,
		Channel:         e.Channel,
		DeliveryTimeout: cfg.Dispatch.DeliveryTimeout,
		DrainTimeout:    cfg.Dispatch.DrainTimeout,
		Metrics:         dispatchMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	e.Evaluation, err = evaluation.NewService(evaluation.ServiceParams{
		Logger:    logg,
		Builder:   builder,
		Engine:    engine,
		Guard:     guard,
		Publisher: e.Queue,
		Locations: e.Users,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation service: %w", err)
	}

	ok = true
	return e, nil
}

// Close releases clients opened while wiring delivery channels.
func (e *Engine) Close() error {
	var errs error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, e.closers[i]())
	}
	e.closers = nil
	return errs
}

// NewRegistry registers the reference strategies and disables the configured ones.
// The result is detached; NewEngine attaches it to the shared state table.
func NewRegistry(cfg config.TriggersConfig) (*triggers.Registry, error) {
	registry, err := triggers.NewRegistry(strategies.Defaults()...)
	if err != nil {
		return nil, fmt.Errorf("strategy registry: %w", err)
	}
	for _, raw := range cfg.Disabled {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := triggers.ParseType(raw)
		if err != nil {
			return nil, fmt.Errorf("disabled trigger %q: %w", raw, err)
		}
		if err := registry.SetEnabled(t, false); err != nil {
			return nil, fmt.Errorf("disable %s: %w", t, err)
		}
	}
	return registry, nil
}

func (e *Engine) cooldownStore(cfg config.TriggersConfig, params Params) (cooldown.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CooldownBackend)) {
	case config.CooldownBackendSQL:
		store, err := cooldown.NewSQLStore(params.DB.DB())
		if err != nil {
			return nil, fmt.Errorf("sql cooldown store: %w", err)
		}
		e.SQLCooldowns = store
		return store, nil
	default:
		if params.Redis == nil {
			return nil, fmt.Errorf("redis cooldown backend requires a redis client")
		}
		store, err := cooldown.NewRedisStore(params.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis cooldown store: %w", err)
		}
		return store, nil
	}
}

func (e *Engine) deliveryChannel(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*delivery.Multi, error) {
	var channels []delivery.Channel
	if cfg.Dispatch.HasChannel(ChannelLog) {
		channels = append(channels, delivery.NewLogChannel(logg))
	}
	if cfg.Dispatch.HasChannel(ChannelFCM) {
		fcm, err := delivery.NewFCMChannel(ctx, cfg.GCP, cfg.Firebase)
		if err != nil {
			return nil, fmt.Errorf("fcm channel: %w", err)
		}
		channels = append(channels, fcm)
	}
	if cfg.Dispatch.HasChannel(ChannelPubSub) {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		e.closers = append(e.closers, client.Close)
		publisher := client.NotificationPublisher()
		if publisher == nil {
			return nil, fmt.Errorf("pubsub channel: notification topic not configured")
		}
		e.closers = append(e.closers, func() error {
			publisher.Stop()
			return nil
		})
		ch, err := delivery.NewPubSubChannel(publisher)
		if err != nil {
			return nil, fmt.Errorf("pubsub channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		channels = append(channels, delivery.NewLogChannel(logg))
	}
	multi, err := delivery.NewMulti(logg, channels...)
	if err != nil {
		return nil, fmt.Errorf("delivery channels: %w", err)
	}
	return multi, nil
}
