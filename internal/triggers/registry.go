package triggers

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Strategy is a pluggable rule bound to one trigger type.
// Lower priority numbers take precedence. Evaluate must not block on I/O.
type Strategy interface {
	Type() Type
	Priority() int
	Description() string
	Evaluate(tc *Context) (Result, error)
}

type registration struct {
	strategy Strategy
	enabled  bool
}

// StateStore shares enabled flags between every process that evaluates strategies.
type StateStore interface {
	LoadStates(ctx context.Context) (map[Type]bool, error)
	SaveState(ctx context.Context, t Type, enabled bool) error
	EnsureState(ctx context.Context, t Type, enabled bool) error
}

// Registry owns the registered strategies and their enabled flags.
// Once attached to a StateStore the flags follow the store.
type Registry struct {
	mu      sync.RWMutex
	ordered []*registration
	byType  map[Type]*registration

	store        StateStore
	refreshEvery time.Duration
	syncedAt     time.Time
}

// NewRegistry registers the strategies in order. Every strategy starts enabled.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{byType: make(map[Type]*registration)}
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a strategy, rejecting nil strategies, blank types and duplicates.
func (r *Registry) Register(s Strategy) error {
	if s == nil || (reflect.ValueOf(s).Kind() == reflect.Ptr && reflect.ValueOf(s).IsNil()) {
		return fmt.Errorf("nil trigger strategy")
	}
	t := s.Type()
	if t == "" {
		return fmt.Errorf("trigger strategy %s has an empty type", implementationName(s))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byType[t]; ok {
		return fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateStrategy, t, implementationName(existing.strategy), implementationName(s))
	}
	reg := &registration{strategy: s, enabled: true}
	r.ordered = append(r.ordered, reg)
	r.byType[t] = reg
	return nil
}

// Enabled returns the enabled strategies sorted by ascending priority.
// Ties keep registration order.
func (r *Registry) Enabled() []Strategy {
	r.mu.RLock()
	out := make([]Strategy, 0, len(r.ordered))
	for _, reg := range r.ordered {
		if reg.enabled {
			out = append(out, reg.strategy)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// Get looks up the strategy for a type.
func (r *Registry) Get(t Type) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byType[t]
	if !ok {
		return nil, false
	}
	return reg.strategy, true
}

// IsEnabled reports whether the type is registered and enabled.
func (r *Registry) IsEnabled(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byType[t]
	return ok && reg.enabled
}

// SetEnabled toggles a registered type in this process only. Use Toggle once
// the registry is attached to a store.
func (r *Registry) SetEnabled(t Type, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byType[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, t)
	}
	reg.enabled = enabled
	return nil
}

// Attach binds the registry to a shared store. Types disabled locally are
// written as disabled, the rest are created enabled when the store has no row
// for them. The registry then adopts the stored flags and re-reads them at
// most every refreshEvery.
func (r *Registry) Attach(ctx context.Context, store StateStore, refreshEvery time.Duration) error {
	if store == nil {
		return fmt.Errorf("strategy state store required")
	}
	for _, info := range r.Infos() {
		var err error
		if info.Enabled {
			err = store.EnsureState(ctx, info.Type, true)
		} else {
			err = store.SaveState(ctx, info.Type, false)
		}
		if err != nil {
			return fmt.Errorf("seed %s state: %w", info.Type, err)
		}
	}

	r.mu.Lock()
	r.store = store
	r.refreshEvery = refreshEvery
	r.mu.Unlock()
	return r.Sync(ctx)
}

// Sync replaces the local flags with the stored ones. Rows for types this
// process does not register are ignored.
func (r *Registry) Sync(ctx context.Context) error {
	r.mu.RLock()
	store := r.store
	r.mu.RUnlock()
	if store == nil {
		return nil
	}

	states, err := store.LoadStates(ctx)
	if err != nil {
		return fmt.Errorf("load strategy states: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for t, enabled := range states {
		if reg, ok := r.byType[t]; ok {
			reg.enabled = enabled
		}
	}
	r.syncedAt = time.Now()
	return nil
}

// Refresh syncs when the last sync is older than the refresh interval.
// It is a no-op for a detached registry.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.RLock()
	stale := r.store != nil && time.Since(r.syncedAt) >= r.refreshEvery
	r.mu.RUnlock()
	if !stale {
		return nil
	}
	return r.Sync(ctx)
}

// Toggle sets the enabled flag of a registered type, writing it to the
// attached store before applying it locally.
func (r *Registry) Toggle(ctx context.Context, t Type, enabled bool) error {
	r.mu.RLock()
	_, ok := r.byType[t]
	store := r.store
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, t)
	}
	if store != nil {
		if err := store.SaveState(ctx, t, enabled); err != nil {
			return fmt.Errorf("save %s state: %w", t, err)
		}
	}
	return r.SetEnabled(t, enabled)
}

// Resolve returns the strategy for t, failing when it is unknown or disabled.
func (r *Registry) Resolve(t Type) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, t)
	}
	if !reg.enabled {
		return nil, fmt.Errorf("%w: %s", ErrStrategyDisabled, t)
	}
	return reg.strategy, nil
}

// Types lists registered types in registration order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.ordered))
	for _, reg := range r.ordered {
		out = append(out, reg.strategy.Type())
	}
	return out
}

// Infos returns the admin view ordered by priority.
func (r *Registry) Infos() []StrategyInfo {
	r.mu.RLock()
	out := make([]StrategyInfo, 0, len(r.ordered))
	for _, reg := range r.ordered {
		out = append(out, StrategyInfo{
			Type:           reg.strategy.Type(),
			Description:    reg.strategy.Description(),
			Priority:       reg.strategy.Priority(),
			Enabled:        reg.enabled,
			Implementation: implementationName(reg.strategy),
		})
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

func implementationName(s Strategy) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
