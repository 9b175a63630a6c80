package notifications

import (
	"context"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/citypulse-backend/pkg/errors"
	"github.com/angelmondragon/citypulse-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Service defines notification history list/read operations.
type Service interface {
	Record(ctx context.Context, notification *models.NotificationHistory) error
	Settle(ctx context.Context, notificationID uuid.UUID, status enums.NotificationStatus, reason *string) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures paging for a user's history.
type ListParams struct {
	UserID     uuid.UUID
	Page       int
	Size       int
	UnreadOnly bool
}

// ListResult wraps one page of history.
type ListResult struct {
	Items []models.NotificationHistory `json:"items"`
	Page  pagination.Meta              `json:"page"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, notification *models.NotificationHistory) error {
	if notification == nil || notification.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification user id required")
	}
	if !notification.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid notification status %q", notification.Status)
	}
	if notification.SentAt.IsZero() {
		notification.SentAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification history")
	}
	return nil
}

// Settle records the delivery outcome of a pending notification.
func (s *service) Settle(ctx context.Context, notificationID uuid.UUID, status enums.NotificationStatus, reason *string) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	if !status.IsFinal() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "notification status %q is not a delivery outcome", status)
	}
	updated, err := s.repo.SetStatus(ctx, notificationID, status, reason)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle notification")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending notification not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Page < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page must not be negative")
	}
	if params.Size < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size must not be negative")
	}

	page := pagination.Params{Page: params.Page, Size: params.Size}.Normalize()
	rows, total, err := s.repo.List(ctx, listParams{
		UserID:     params.UserID,
		Page:       page,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.NotificationHistory{}
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewMeta(page, total),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}
