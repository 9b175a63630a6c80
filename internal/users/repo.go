package users

import (
	"context"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPageSize = 200

// ActiveQuery pages through active users ordered by id.
type ActiveQuery struct {
	ActiveSince time.Time
	Interest    enums.InterestCategory
	AfterID     uuid.UUID
	Limit       int
}

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user together with its interests.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user and its interests.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Interests").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActive returns one page of active users, interests preloaded.
// Users without a known location are still returned.
func (r *Repository) ListActive(ctx context.Context, q ActiveQuery) ([]models.User, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := r.db.WithContext(ctx).Model(&models.User{}).Where("users.is_active = ?", true)
	if !q.ActiveSince.IsZero() {
		query = query.Where("users.last_active_at >= ?", q.ActiveSince)
	}
	if q.Interest != "" {
		query = query.Where("EXISTS (SELECT 1 FROM user_interests ui WHERE ui.user_id = users.id AND ui.category = ?)", q.Interest)
	}
	if q.AfterID != uuid.Nil {
		query = query.Where("users.id > ?", q.AfterID)
	}

	var out []models.User
	if err := query.Preload("Interests").Order("users.id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLastLocation records the latest reported position and marks the user active.
func (r *Repository) UpdateLastLocation(ctx context.Context, userID uuid.UUID, loc types.Location, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]any{
			"last_latitude":    loc.Lat,
			"last_longitude":   loc.Lng,
			"last_location_at": at,
			"last_active_at":   at,
		}).Error
}
