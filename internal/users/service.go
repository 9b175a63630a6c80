package users

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/citypulse-backend/pkg/errors"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActive(ctx context.Context, q ActiveQuery) ([]models.User, error)
	UpdateLastLocation(ctx context.Context, userID uuid.UUID, loc types.Location, at time.Time) error
}

// Service is the user collaborator consumed by evaluation and the sweeps.
type Service struct {
	repo         repository
	activeWithin time.Duration
	pageSize     int
	now          func() time.Time
}

// NewService wires the user collaborator. activeWithin bounds how recently a user
// must have been seen to be swept; zero disables the bound.
func NewService(repo repository, activeWithin time.Duration, pageSize int) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{repo: repo, activeWithin: activeWithin, pageSize: pageSize, now: time.Now}, nil
}

// Get loads a user with interests.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// ForEachActive pages through the active population and calls fn for each user.
// An empty interest selects everybody. Iteration stops on fn error or context cancel.
func (s *Service) ForEachActive(ctx context.Context, interest enums.InterestCategory, fn func(models.User) error) error {
	q := ActiveQuery{Interest: interest, Limit: s.pageSize}
	if s.activeWithin > 0 {
		q.ActiveSince = s.now().UTC().Add(-s.activeWithin)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.repo.ListActive(ctx, q)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active users")
		}
		for _, user := range page {
			if err := fn(user); err != nil {
				return err
			}
		}
		if len(page) < q.Limit {
			return nil
		}
		q.AfterID = page[len(page)-1].ID
	}
}

// TouchLocation stores the location the user last evaluated from.
func (s *Service) TouchLocation(ctx context.Context, userID uuid.UUID, loc types.Location) error {
	if err := s.repo.UpdateLastLocation(ctx, userID, loc, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last location")
	}
	return nil
}
