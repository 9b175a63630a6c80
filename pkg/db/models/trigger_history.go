package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TriggerHistory is one row of the cooldown ledger, appended every time a trigger fires.
type TriggerHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_trigger_history_user_type_at,priority:1"`
	TriggerType string    `gorm:"type:text;not null;index:idx_trigger_history_user_type_at,priority:2"`
	TriggeredAt time.Time `gorm:"not null;index:idx_trigger_history_user_type_at,priority:3"`
	Forced      bool      `gorm:"not null"`
}

func (TriggerHistory) TableName() string { return "trigger_history" }

func (h *TriggerHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// TriggerCooldown holds the last fire time per (user, trigger type). The unique
// index is what makes the conditional upsert atomic.
type TriggerCooldown struct {
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_trigger_cooldowns_user_type,priority:1"`
	TriggerType string    `gorm:"type:text;not null;uniqueIndex:idx_trigger_cooldowns_user_type,priority:2"`
	TriggeredAt time.Time `gorm:"not null"`
}

func (TriggerCooldown) TableName() string { return "trigger_cooldowns" }

// TriggerStrategyState is the shared enabled flag of one strategy.
type TriggerStrategyState struct {
	TriggerType string    `gorm:"type:text;primaryKey"`
	Enabled     bool      `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (TriggerStrategyState) TableName() string { return "trigger_strategy_states" }

// All lists every model owned by the schema, for test databases.
func All() []any {
	return []any{
		&User{},
		&UserInterest{},
		&NotificationHistory{},
		&TriggerHistory{},
		&TriggerCooldown{},
		&TriggerStrategyState{},
	}
}
