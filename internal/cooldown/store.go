package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store performs the atomic check-and-record for one (user, trigger type) key.
// Acquire reports true when the caller may dispatch: either no fire was recorded
// within window, or force is set. Either way the fire time becomes now.
type Store interface {
	Acquire(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, window time.Duration, force bool) (bool, error)
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CooldownKey(userID, triggerType string) string
}

// RedisStore keeps one expiring key per pair; the key's TTL is the window.
type RedisStore struct {
	client redisStore
}

func NewRedisStore(client redisStore) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required for cooldown store")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Acquire(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, window time.Duration, force bool) (bool, error) {
	if window <= 0 {
		return false, fmt.Errorf("cooldown window must be positive")
	}
	key := s.client.CooldownKey(userID.String(), t.String())
	value := strconv.FormatInt(now.UnixMilli(), 10)

	if force {
		if err := s.client.Set(ctx, key, value, window); err != nil {
			return false, fmt.Errorf("redis set cooldown: %w", err)
		}
		return true, nil
	}

	ok, err := s.client.SetNX(ctx, key, value, window)
	if err != nil {
		return false, fmt.Errorf("redis setnx cooldown: %w", err)
	}
	return ok, nil
}

const (
	upsertCooldownSQL = `INSERT INTO trigger_cooldowns (user_id, trigger_type, triggered_at) VALUES (?, ?, ?)
ON CONFLICT (user_id, trigger_type) DO UPDATE SET triggered_at = excluded.triggered_at
WHERE trigger_cooldowns.triggered_at <= ?`

	forceCooldownSQL = `INSERT INTO trigger_cooldowns (user_id, trigger_type, triggered_at) VALUES (?, ?, ?)
ON CONFLICT (user_id, trigger_type) DO UPDATE SET triggered_at = excluded.triggered_at`
)

// SQLStore relies on the unique (user_id, trigger_type) index: a single conditional
// upsert either claims the row or leaves it untouched.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db required for cooldown store")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Acquire(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, window time.Duration, force bool) (bool, error) {
	if window <= 0 {
		return false, fmt.Errorf("cooldown window must be positive")
	}
	now = now.UTC()

	var result *gorm.DB
	if force {
		result = s.db.WithContext(ctx).Exec(forceCooldownSQL, userID, t.String(), now)
	} else {
		result = s.db.WithContext(ctx).Exec(upsertCooldownSQL, userID, t.String(), now, now.Add(-window))
	}
	if result.Error != nil {
		return false, fmt.Errorf("upsert cooldown: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// DeleteExpired drops cooldown rows whose window closed before cutoff.
func (s *SQLStore) DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := s.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).Exec("DELETE FROM trigger_cooldowns WHERE triggered_at < ?", cutoff.UTC())
	return result.RowsAffected, result.Error
}
