package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, repo Repository, userID uuid.UUID, sentAt time.Time) *models.NotificationHistory {
	t.Helper()
	row := &models.NotificationHistory{
		UserID:           userID,
		Type:             enums.NotificationTypeWeatherAlert,
		Title:            "Heat",
		Message:          "It is hot",
		TriggerCondition: "TEMPERATURE_ABOVE_33",
		Status:           enums.NotificationStatusSent,
		SentAt:           sentAt,
	}
	require.NoError(t, repo.Create(context.Background(), row))
	return row
}

func TestRepositoryListNewestFirstWithTotals(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	user := uuid.New()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedHistory(t, repo, user, base.Add(time.Duration(i)*time.Minute))
	}
	seedHistory(t, repo, uuid.New(), base)

	rows, total, err := repo.List(ctx, listParams{UserID: user, Page: pagination.Params{Page: 0, Size: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].SentAt.After(rows[1].SentAt))

	rows, _, err = repo.List(ctx, listParams{UserID: user, Page: pagination.Params{Page: 1, Size: 2}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepositoryMarkReadScopedToOwner(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	user := uuid.New()
	row := seedHistory(t, repo, user, time.Now().UTC().Truncate(time.Second))

	mark, err := repo.MarkRead(ctx, uuid.New(), row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, mark.Found)

	mark, err = repo.MarkRead(ctx, user, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, user, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	rows, total, err := repo.List(ctx, listParams{UserID: user, UnreadOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	seedHistory(t, repo, uuid.New(), base.AddDate(0, 0, -40))
	seedHistory(t, repo, uuid.New(), base.AddDate(0, 0, -1))

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestRepositorySetStatusOnlyMovesPendingRows(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	row := &models.NotificationHistory{
		UserID:  uuid.New(),
		Type:    enums.NotificationTypeWeatherAlert,
		Title:   "Heat",
		Message: "It is hot",
		Status:  enums.NotificationStatusPending,
		SentAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, row))

	reason := "push rejected"
	updated, err := repo.SetStatus(ctx, row.ID, enums.NotificationStatusFailed, &reason)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.SetStatus(ctx, row.ID, enums.NotificationStatusSent, nil)
	require.NoError(t, err)
	assert.False(t, updated, "settled rows keep their outcome")

	rows, _, err := repo.List(ctx, listParams{UserID: row.UserID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.NotificationStatusFailed, rows[0].Status)
	require.NotNil(t, rows[0].FailureReason)
	assert.Equal(t, reason, *rows[0].FailureReason)
}
