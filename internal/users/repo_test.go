package users

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *Repository, email string, active bool, lastActive time.Time, interests ...enums.InterestCategory) *models.User {
	t.Helper()
	user := &models.User{Email: email, IsActive: active, LastActiveAt: &lastActive}
	for _, c := range interests {
		user.Interests = append(user.Interests, models.UserInterest{Category: c})
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRepositoryListActiveFiltersAndPages(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, repo, "a@city.test", true, now, enums.InterestWeather)
	seedUser(t, repo, "b@city.test", true, now, enums.InterestCulture, enums.InterestWeather)
	seedUser(t, repo, "c@city.test", false, now, enums.InterestCulture)
	seedUser(t, repo, "d@city.test", true, now.Add(-90*24*time.Hour), enums.InterestCulture)

	all, err := repo.ListActive(ctx, ActiveQuery{ActiveSince: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	culture, err := repo.ListActive(ctx, ActiveQuery{ActiveSince: now.Add(-time.Hour), Interest: enums.InterestCulture})
	require.NoError(t, err)
	require.Len(t, culture, 1)
	assert.Equal(t, "b@city.test", culture[0].Email)
	assert.Len(t, culture[0].Interests, 2)

	first, err := repo.ListActive(ctx, ActiveQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)
	rest, err := repo.ListActive(ctx, ActiveQuery{Limit: 10, AfterID: first[0].ID})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	for _, u := range rest {
		assert.NotEqual(t, first[0].ID, u.ID)
	}
}

func TestRepositoryInterestsAndLocation(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	user := seedUser(t, repo, "loc@city.test", true, time.Now().UTC(), enums.InterestCulture, enums.InterestAirQuality)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLocation(ctx, user.ID, types.Location{Lat: 37.5, Lng: 127.0}, at))

	loaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLocation())
	assert.Equal(t, 37.5, loaded.LastLocation().Lat)
	assert.Len(t, loaded.InterestCategories(), 2)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Error(t, err)
}
