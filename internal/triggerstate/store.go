// Package triggerstate persists strategy enabled flags so the API and the
// trigger worker agree on which strategies run.
package triggerstate

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
)

const (
	saveStateSQL = `INSERT INTO trigger_strategy_states (trigger_type, enabled, updated_at) VALUES (?, ?, ?)
ON CONFLICT (trigger_type) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`

	ensureStateSQL = `INSERT INTO trigger_strategy_states (trigger_type, enabled, updated_at) VALUES (?, ?, ?)
ON CONFLICT (trigger_type) DO NOTHING`
)

// Store keeps one row per trigger type in trigger_strategy_states.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db required for strategy state store")
	}
	return &Store{db: db}, nil
}

// LoadStates returns every stored flag keyed by trigger type.
func (s *Store) LoadStates(ctx context.Context) (map[triggers.Type]bool, error) {
	var rows []models.TriggerStrategyState
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[triggers.Type]bool, len(rows))
	for _, row := range rows {
		out[triggers.Type(row.TriggerType)] = row.Enabled
	}
	return out, nil
}

// SaveState writes the flag, replacing any stored value.
func (s *Store) SaveState(ctx context.Context, t triggers.Type, enabled bool) error {
	return s.db.WithContext(ctx).Exec(saveStateSQL, t.String(), enabled, time.Now().UTC()).Error
}

// EnsureState writes the flag only when the type has no row yet.
func (s *Store) EnsureState(ctx context.Context, t triggers.Type, enabled bool) error {
	return s.db.WithContext(ctx).Exec(ensureStateSQL, t.String(), enabled, time.Now().UTC()).Error
}
