package triggers

import (
	"context"
	"fmt"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
)

// Selector narrows which enabled strategies a pass evaluates.
type Selector func(Strategy) bool

// OnlyTypes selects the listed types.
func OnlyTypes(types ...Type) Selector {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(s Strategy) bool {
		_, ok := set[s.Type()]
		return ok
	}
}

// ExceptTypes selects everything but the listed types.
func ExceptTypes(types ...Type) Selector {
	only := OnlyTypes(types...)
	return func(s Strategy) bool {
		return !only(s)
	}
}

// Engine runs registered strategies against a Context. It performs no I/O.
type Engine struct {
	registry *Registry
	logg     *logger.Logger
	metrics  *metrics.TriggerMetrics
}

// NewEngine builds an engine over the registry. Metrics may be nil.
func NewEngine(registry *Registry, logg *logger.Logger, m *metrics.TriggerMetrics) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("strategy registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Engine{registry: registry, logg: logg, metrics: m}, nil
}

// Registry exposes the underlying registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// EvaluateFirstMatch evaluates enabled strategies by ascending priority and
// stops at the first one that fires.
func (e *Engine) EvaluateFirstMatch(ctx context.Context, tc *Context) Outcome {
	return e.EvaluateFirstMatchSelected(ctx, tc, nil)
}

// EvaluateFirstMatchSelected is EvaluateFirstMatch restricted by sel.
func (e *Engine) EvaluateFirstMatchSelected(ctx context.Context, tc *Context, sel Selector) Outcome {
	out := Outcome{Results: []Result{}}
	for _, s := range e.registry.Enabled() {
		if sel != nil && !sel(s) {
			continue
		}
		res, ok := e.evaluate(ctx, s, tc)
		out.TotalEvaluated++
		if !ok {
			out.Faults++
			continue
		}
		if res.Triggered {
			out.Results = append(out.Results, res)
			return out
		}
	}
	return out
}

// EvaluateAll evaluates every enabled strategy and collects each one that fires.
func (e *Engine) EvaluateAll(ctx context.Context, tc *Context) Outcome {
	return e.EvaluateSelected(ctx, tc, nil)
}

// EvaluateSelected is EvaluateAll restricted by sel. A nil selector keeps everything.
func (e *Engine) EvaluateSelected(ctx context.Context, tc *Context, sel Selector) Outcome {
	out := Outcome{Results: []Result{}}
	for _, s := range e.registry.Enabled() {
		if sel != nil && !sel(s) {
			continue
		}
		res, ok := e.evaluate(ctx, s, tc)
		out.TotalEvaluated++
		if !ok {
			out.Faults++
			continue
		}
		if res.Triggered {
			out.Results = append(out.Results, res)
		}
	}
	return out
}

// EvaluateByType evaluates the single enabled strategy registered for t.
func (e *Engine) EvaluateByType(ctx context.Context, tc *Context, t Type) (Outcome, error) {
	s, err := e.registry.Resolve(t)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Results: []Result{}, TotalEvaluated: 1}
	res, ok := e.evaluate(ctx, s, tc)
	if !ok {
		out.Faults = 1
		return out, nil
	}
	if res.Triggered {
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// EvaluateTypes runs an exhaustive pass over the requested types. Every type must be
// registered and enabled; otherwise nothing is evaluated.
func (e *Engine) EvaluateTypes(ctx context.Context, tc *Context, types []Type) (Outcome, error) {
	if len(types) == 0 {
		return e.EvaluateAll(ctx, tc), nil
	}
	for _, t := range types {
		if _, err := e.registry.Resolve(t); err != nil {
			return Outcome{}, err
		}
	}
	return e.EvaluateSelected(ctx, tc, OnlyTypes(types...)), nil
}

// evaluate calls one strategy, turning panics and errors into a non-triggered fault.
func (e *Engine) evaluate(ctx context.Context, s Strategy, tc *Context) (res Result, ok bool) {
	t := s.Type()
	e.metrics.IncEvaluated(t.String())

	defer func() {
		if r := recover(); r != nil {
			e.fault(ctx, t, tc, fmt.Errorf("panic: %v", r))
			res, ok = NotTriggered(t), false
		}
	}()

	res, err := s.Evaluate(tc)
	if err != nil {
		e.fault(ctx, t, tc, err)
		return NotTriggered(t), false
	}

	res.TriggerType = t
	if res.Priority == 0 {
		res.Priority = s.Priority()
	}
	if res.LocationInfo == "" {
		res.LocationInfo = tc.LocationInfo()
	}
	if res.Triggered {
		e.metrics.IncTriggered(t.String())
	}
	return res, true
}

func (e *Engine) fault(ctx context.Context, t Type, tc *Context, err error) {
	e.metrics.IncFault(t.String())
	logCtx := e.logg.WithTriggerType(ctx, t.String())
	logCtx = e.logg.WithUserID(logCtx, tc.UserID().String())
	e.logg.Error(logCtx, "trigger strategy evaluation failed", err)
}
