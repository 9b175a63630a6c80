package notifications

import (
	"context"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for notification history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.NotificationHistory) error
	List(ctx context.Context, params listParams) ([]models.NotificationHistory, int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error)
	SetStatus(ctx context.Context, notificationID uuid.UUID, status enums.NotificationStatus, reason *string) (bool, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notification history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	UserID     uuid.UUID
	Page       pagination.Params
	UnreadOnly bool
}

type markResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.NotificationHistory) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.NotificationHistory, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.NotificationHistory{}).Where("user_id = ?", params.UserID)
		if params.UnreadOnly {
			query = query.Where("read_at IS NULL")
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Page.Normalize()
	var rows []models.NotificationHistory
	err := scoped().
		Order("sent_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationHistory{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return markResult{}, result.Error
	}

	mark := markResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationHistory{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error; err != nil {
		return markResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

// SetStatus moves a pending row to its delivery outcome. Settled rows are left untouched.
func (r *repositoryImpl) SetStatus(ctx context.Context, notificationID uuid.UUID, status enums.NotificationStatus, reason *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationHistory{}).
		Where("id = ? AND status = ?", notificationID, enums.NotificationStatusPending).
		UpdateColumns(map[string]any{
			"status":         status,
			"failure_reason": reason,
		})
	return result.RowsAffected > 0, result.Error
}

// DeleteOlderThan prunes rows sent before cutoff, inside tx when given.
func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("sent_at < ?", cutoff.UTC()).
		Delete(&models.NotificationHistory{})
	return result.RowsAffected, result.Error
}
