package triggerstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/db/dbtest"
)

const (
	heat triggers.Type = "HIGH_TEMPERATURE"
	rain triggers.Type = "RAIN_ALERT"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(dbtest.Open(t).DB())
	require.NoError(t, err)
	return store
}

func TestSaveStateOverwrites(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, heat, true))
	require.NoError(t, store.SaveState(ctx, heat, false))

	states, err := store.LoadStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[triggers.Type]bool{heat: false}, states)
}

func TestEnsureStateKeepsExistingRow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, heat, false))
	require.NoError(t, store.EnsureState(ctx, heat, true))
	require.NoError(t, store.EnsureState(ctx, rain, true))

	states, err := store.LoadStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[triggers.Type]bool{heat: false, rain: true}, states)
}

func TestNewStoreRequiresDB(t *testing.T) {
	_, err := NewStore(nil)
	require.Error(t, err)
}
