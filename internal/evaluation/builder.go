// Package evaluation assembles trigger contexts and runs them through the engine,
// the cooldown guard and the dispatch queue. Both the scheduler and the HTTP API
// go through it.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/snapshot"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
)

// Metadata keys set on every built context.
const (
	MetaRadius         = "radius"
	MetaRequestedTypes = "requestedTypes"
	MetaSource         = "source"
	MetaFailedSources  = "failedSources"
)

type userSource interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type snapshotSource interface {
	Collect(ctx context.Context, q snapshot.Query) snapshot.Snapshot
}

type historySource interface {
	LastTriggered(ctx context.Context, userID uuid.UUID, since time.Time) (map[triggers.Type]time.Time, error)
}

// BuildRequest scopes one context. User wins over UserID when both are set.
type BuildRequest struct {
	User           *models.User
	UserID         uuid.UUID
	Location       *types.Location
	Radius         int
	RequestedTypes []triggers.Type
	Source         string
	Now            time.Time
}

// BuilderParams wire a ContextBuilder. History may be nil.
type BuilderParams struct {
	Logger        *logger.Logger
	Users         userSource
	Snapshots     snapshotSource
	History       historySource
	HistoryWindow time.Duration
	DefaultRadius int
}

// ContextBuilder turns a user plus live data into an immutable trigger context.
type ContextBuilder struct {
	logg          *logger.Logger
	users         userSource
	snapshots     snapshotSource
	history       historySource
	historyWindow time.Duration
	defaultRadius int
}

func NewContextBuilder(params BuilderParams) (*ContextBuilder, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user source required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot source required")
	}
	if params.DefaultRadius <= 0 {
		params.DefaultRadius = DefaultRadius
	}
	if params.HistoryWindow <= 0 {
		params.HistoryWindow = 24 * time.Hour
	}
	return &ContextBuilder{
		logg:          params.Logger,
		users:         params.Users,
		snapshots:     params.Snapshots,
		history:       params.History,
		historyWindow: params.HistoryWindow,
		defaultRadius: params.DefaultRadius,
	}, nil
}

// Build fails only when the user cannot be loaded. Unavailable data sources leave
// their keys out of the snapshot.
func (b *ContextBuilder) Build(ctx context.Context, req BuildRequest) (*triggers.Context, error) {
	user := req.User
	if user == nil {
		loaded, err := b.users.Get(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		user = loaded
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	radius := req.Radius
	if radius <= 0 {
		radius = b.defaultRadius
	}

	location := req.Location
	if location == nil {
		location = user.LastLocation()
	}

	logCtx := b.logg.WithUserID(ctx, user.ID.String())

	var values map[string]any
	var failed []string
	if location != nil {
		snap := b.snapshots.Collect(ctx, snapshot.Query{Location: *location, Radius: radius, Now: now})
		values = snap.Values
		failed = snap.Failed
	} else {
		b.logg.Debug(logCtx, "no location for user, building context without snapshot")
	}

	var last map[triggers.Type]time.Time
	if b.history != nil {
		history, err := b.history.LastTriggered(ctx, user.ID, now.Add(-b.historyWindow))
		if err != nil {
			b.logg.Warn(logCtx, fmt.Sprintf("trigger history unavailable: %v", err))
		} else {
			last = history
		}
	}

	requested := make([]string, 0, len(req.RequestedTypes))
	for _, t := range req.RequestedTypes {
		requested = append(requested, t.String())
	}

	return triggers.NewContext(triggers.ContextParams{
		UserID:        user.ID,
		Interests:     user.InterestCategories(),
		Location:      location,
		Snapshot:      values,
		Now:           now,
		LastTriggered: last,
		Metadata: map[string]any{
			MetaRadius:         radius,
			MetaRequestedTypes: requested,
			MetaSource:         req.Source,
			MetaFailedSources:  failed,
		},
	}), nil
}
