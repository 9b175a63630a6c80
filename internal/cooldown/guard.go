package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
	"github.com/google/uuid"
)

type recorder interface {
	Record(ctx context.Context, userID uuid.UUID, t triggers.Type, at time.Time, forced bool) error
}

// GuardParams configure a Guard. Ledger and Metrics may be nil.
type GuardParams struct {
	Logger  *logger.Logger
	Store   Store
	Ledger  recorder
	Window  time.Duration
	Metrics *metrics.TriggerMetrics
}

// Guard decides whether a triggered result may be dispatched.
type Guard struct {
	logg    *logger.Logger
	store   Store
	ledger  recorder
	window  time.Duration
	metrics *metrics.TriggerMetrics
}

func NewGuard(params GuardParams) (*Guard, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cooldown store required")
	}
	if params.Window <= 0 {
		return nil, fmt.Errorf("cooldown window must be positive")
	}
	return &Guard{
		logg:    params.Logger,
		store:   params.Store,
		ledger:  params.Ledger,
		window:  params.Window,
		metrics: params.Metrics,
	}, nil
}

// Admit claims the cooldown key. A store failure suppresses the result; a ledger
// failure is logged and never revokes the claim.
func (g *Guard) Admit(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, force bool) bool {
	logCtx := g.logg.WithTriggerType(g.logg.WithUserID(ctx, userID.String()), t.String())

	acquired, err := g.store.Acquire(ctx, userID, t, now, g.window, force)
	if err != nil {
		g.logg.Error(logCtx, "cooldown check failed, suppressing result", err)
		g.metrics.IncSuppressed(t.String())
		return false
	}
	if !acquired {
		g.logg.Debug(logCtx, "trigger suppressed by cooldown")
		g.metrics.IncSuppressed(t.String())
		return false
	}

	if g.ledger != nil {
		if err := g.ledger.Record(ctx, userID, t, now, force); err != nil {
			g.logg.Error(logCtx, "failed to append trigger history", err)
		}
	}
	return true
}
