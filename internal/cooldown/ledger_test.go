package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/citypulse-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordAndLastTriggered(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger(client.DB())
	ctx := context.Background()
	user := uuid.New()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, user, heat, base.Add(-2*time.Hour), false))
	require.NoError(t, ledger.Record(ctx, user, heat, base.Add(-time.Hour), true))
	require.NoError(t, ledger.Record(ctx, user, "BAD_AIR_QUALITY", base.Add(-48*time.Hour), false))
	require.NoError(t, ledger.Record(ctx, uuid.New(), heat, base, false))

	last, err := ledger.LastTriggered(ctx, user, base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.True(t, last[heat].Equal(base.Add(-time.Hour)))

	var forced int64
	require.NoError(t, client.DB().Model(&models.TriggerHistory{}).Where("forced = ?", true).Count(&forced).Error)
	assert.EqualValues(t, 1, forced)
}

func TestLedgerDeleteOlderThan(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger(client.DB())
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, uuid.New(), heat, base.AddDate(0, 0, -10), false))
	require.NoError(t, ledger.Record(ctx, uuid.New(), heat, base.AddDate(0, 0, -1), false))

	deleted, err := ledger.DeleteOlderThan(ctx, nil, base.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
