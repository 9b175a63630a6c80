package cooldown

import (
	"context"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger appends and reads TriggerHistory rows.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends one fire.
func (l *Ledger) Record(ctx context.Context, userID uuid.UUID, t triggers.Type, at time.Time, forced bool) error {
	return l.db.WithContext(ctx).Create(&models.TriggerHistory{
		UserID:      userID,
		TriggerType: t.String(),
		TriggeredAt: at.UTC(),
		Forced:      forced,
	}).Error
}

// LastTriggered returns the latest fire per type at or after since.
func (l *Ledger) LastTriggered(ctx context.Context, userID uuid.UUID, since time.Time) (map[triggers.Type]time.Time, error) {
	var rows []models.TriggerHistory
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND triggered_at >= ?", userID, since.UTC()).
		Order("triggered_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[triggers.Type]time.Time, len(rows))
	for _, row := range rows {
		t := triggers.Type(row.TriggerType)
		if _, seen := out[t]; !seen {
			out[t] = row.TriggeredAt
		}
	}
	return out, nil
}

// DeleteOlderThan prunes ledger rows for retention.
func (l *Ledger) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := l.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).Where("triggered_at < ?", cutoff.UTC()).Delete(&models.TriggerHistory{})
	return result.RowsAffected, result.Error
}
