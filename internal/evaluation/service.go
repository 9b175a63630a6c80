package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/dispatch"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/citypulse-backend/pkg/errors"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
)

const (
	DefaultRadius = 2000
	MinRadius     = 1
	MaxRadius     = 50000
)

// Publisher hands admitted results to the dispatcher without blocking.
type Publisher interface {
	Publish(ctx context.Context, ev dispatch.Event) bool
}

type admitter interface {
	Admit(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, force bool) bool
}

type locationRecorder interface {
	TouchLocation(ctx context.Context, userID uuid.UUID, loc types.Location) error
}

// ServiceParams wire a Service. Locations may be nil.
type ServiceParams struct {
	Logger    *logger.Logger
	Builder   *ContextBuilder
	Engine    *triggers.Engine
	Guard     admitter
	Publisher Publisher
	Locations locationRecorder
}

// Service runs contexts through engine, cooldown and dispatch.
type Service struct {
	logg      *logger.Logger
	builder   *ContextBuilder
	engine    *triggers.Engine
	guard     admitter
	publisher Publisher
	locations locationRecorder
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Builder == nil:
		return nil, fmt.Errorf("context builder required")
	case params.Engine == nil:
		return nil, fmt.Errorf("engine required")
	case params.Guard == nil:
		return nil, fmt.Errorf("cooldown guard required")
	case params.Publisher == nil:
		return nil, fmt.Errorf("publisher required")
	}
	return &Service{
		logg:      params.Logger,
		builder:   params.Builder,
		engine:    params.Engine,
		guard:     params.Guard,
		publisher: params.Publisher,
		locations: params.Locations,
	}, nil
}

// Registry exposes the strategy registry for listing and admin toggles.
func (s *Service) Registry() *triggers.Registry {
	return s.engine.Registry()
}

// LocationRequest is an on-demand evaluation for the caller at a point.
type LocationRequest struct {
	UserID   uuid.UUID
	Location types.Location
	Radius   int
	Types    []triggers.Type
	Force    bool
	// FirstMatch stops at the highest-precedence strategy that fires.
	FirstMatch bool
}

func (r LocationRequest) validate() error {
	if r.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	if !r.Location.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude must be within [-90,90] and longitude within [-180,180]")
	}
	if r.Radius != 0 && (r.Radius < MinRadius || r.Radius > MaxRadius) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "radius must be between %d and %d", MinRadius, MaxRadius)
	}
	return nil
}

// EvaluateLocation runs an exhaustive pass, restricted to req.Types when given.
// Every requested type must exist and be enabled. With req.FirstMatch the pass
// stops at the first strategy that fires.
func (s *Service) EvaluateLocation(ctx context.Context, req LocationRequest) (*triggers.EvaluationResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	s.refreshStates(ctx)
	if err := s.checkTypes(req.Types); err != nil {
		return nil, err
	}

	tc, err := s.buildOnDemand(ctx, req)
	if err != nil {
		return nil, err
	}

	var outcome triggers.Outcome
	if req.FirstMatch {
		var sel triggers.Selector
		if len(req.Types) > 0 {
			sel = triggers.OnlyTypes(req.Types...)
		}
		outcome = s.engine.EvaluateFirstMatchSelected(ctx, tc, sel)
	} else {
		outcome, err = s.engine.EvaluateTypes(ctx, tc, req.Types)
		if err != nil {
			return nil, typeError(err)
		}
	}
	return s.finish(ctx, tc, outcome, req.Force, dispatch.SourceOnDemand), nil
}

// EvaluateType runs exactly one strategy for the caller.
func (s *Service) EvaluateType(ctx context.Context, t triggers.Type, req LocationRequest) (*triggers.EvaluationResult, error) {
	req.Types = []triggers.Type{t}
	if err := req.validate(); err != nil {
		return nil, err
	}
	s.refreshStates(ctx)
	if err := s.checkTypes(req.Types); err != nil {
		return nil, err
	}

	tc, err := s.buildOnDemand(ctx, req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.EvaluateByType(ctx, tc, t)
	if err != nil {
		return nil, typeError(err)
	}
	return s.finish(ctx, tc, outcome, req.Force, dispatch.SourceOnDemand), nil
}

func (s *Service) buildOnDemand(ctx context.Context, req LocationRequest) (*triggers.Context, error) {
	location := req.Location
	tc, err := s.builder.Build(ctx, BuildRequest{
		UserID:         req.UserID,
		Location:       &location,
		Radius:         req.Radius,
		RequestedTypes: req.Types,
		Source:         dispatch.SourceOnDemand,
	})
	if err != nil {
		return nil, err
	}

	if s.locations != nil {
		if err := s.locations.TouchLocation(ctx, req.UserID, location); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, req.UserID.String()), fmt.Sprintf("failed to record last location: %v", err))
		}
	}
	return tc, nil
}

// SweepResult counts one user's scheduled pass.
type SweepResult struct {
	Evaluated  int
	Triggered  int
	Suppressed int
	Dispatched int
	Faults     int
}

// SweepUser runs the selected enabled strategies for one user on schedule.
// Scheduled runs never force.
func (s *Service) SweepUser(ctx context.Context, user models.User, sel triggers.Selector) (SweepResult, error) {
	s.refreshStates(ctx)
	tc, err := s.builder.Build(ctx, BuildRequest{
		User:   &user,
		Source: dispatch.SourceSchedule,
	})
	if err != nil {
		return SweepResult{}, err
	}

	outcome := s.engine.EvaluateSelected(ctx, tc, sel)
	result := s.finish(ctx, tc, outcome, false, dispatch.SourceSchedule)

	sweep := SweepResult{
		Evaluated: result.TotalEvaluated,
		Triggered: result.TriggeredCount,
		Faults:    outcome.Faults,
	}
	for _, info := range result.TriggeredList {
		if info.Suppressed {
			sweep.Suppressed++
		} else {
			sweep.Dispatched++
		}
	}
	return sweep, nil
}

// finish admits every triggered result through the guard and publishes the admitted ones.
func (s *Service) finish(ctx context.Context, tc *triggers.Context, outcome triggers.Outcome, force bool, source string) *triggers.EvaluationResult {
	list := make([]triggers.TriggeredInfo, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		info := triggers.NewTriggeredInfo(r)
		if s.guard.Admit(ctx, tc.UserID(), r.TriggerType, tc.Now(), force) {
			s.publisher.Publish(ctx, dispatch.NewEvent(tc.UserID(), r, source, tc.Now()))
		} else {
			info.Suppressed = true
		}
		list = append(list, info)
	}

	return &triggers.EvaluationResult{
		Triggered:      len(list) > 0,
		TriggeredCount: len(list),
		TotalEvaluated: outcome.TotalEvaluated,
		TriggeredList:  list,
		EvaluationTime: tc.Now(),
		LocationInfo:   tc.LocationInfo(),
	}
}

// refreshStates picks up toggles made by other processes. A failed read keeps
// the last known flags.
func (s *Service) refreshStates(ctx context.Context) {
	if err := s.engine.Registry().Refresh(ctx); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("strategy states not refreshed: %v", err))
	}
}

func (s *Service) checkTypes(types []triggers.Type) error {
	registry := s.engine.Registry()
	for _, t := range types {
		if _, err := registry.Resolve(t); err != nil {
			return typeError(err)
		}
	}
	return nil
}

func typeError(err error) error {
	switch {
	case errors.Is(err, triggers.ErrStrategyNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown trigger type").
			WithDetails(map[string]string{"reason": err.Error()})
	case errors.Is(err, triggers.ErrStrategyDisabled):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "trigger type is disabled").
			WithDetails(map[string]string{"reason": err.Error()})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "evaluate triggers")
	}
}
