package cooldown

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	acquireFn func(force bool) (bool, error)
	window    time.Duration
}

func (f *fakeStore) Acquire(ctx context.Context, userID uuid.UUID, t triggers.Type, now time.Time, window time.Duration, force bool) (bool, error) {
	f.window = window
	return f.acquireFn(force)
}

type fakeRecorder struct {
	records []bool
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, userID uuid.UUID, t triggers.Type, at time.Time, forced bool) error {
	f.records = append(f.records, forced)
	return f.err
}

func newGuard(t *testing.T, store Store, rec recorder) *Guard {
	t.Helper()
	g, err := NewGuard(GuardParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Store:  store,
		Ledger: rec,
		Window: time.Hour,
	})
	require.NoError(t, err)
	return g
}

func TestGuardRecordsHistoryOnlyWhenAdmitted(t *testing.T) {
	admit := true
	store := &fakeStore{acquireFn: func(force bool) (bool, error) { return admit || force, nil }}
	rec := &fakeRecorder{}
	g := newGuard(t, store, rec)

	assert.True(t, g.Admit(context.Background(), uuid.New(), heat, time.Now(), false))
	admit = false
	assert.False(t, g.Admit(context.Background(), uuid.New(), heat, time.Now(), false))
	assert.True(t, g.Admit(context.Background(), uuid.New(), heat, time.Now(), true))

	assert.Equal(t, []bool{false, true}, rec.records)
	assert.Equal(t, time.Hour, store.window)
}

func TestGuardSuppressesOnStoreError(t *testing.T) {
	store := &fakeStore{acquireFn: func(bool) (bool, error) { return false, errors.New("redis down") }}
	rec := &fakeRecorder{}
	g := newGuard(t, store, rec)

	assert.False(t, g.Admit(context.Background(), uuid.New(), heat, time.Now(), false))
	assert.Empty(t, rec.records)
}

func TestGuardKeepsClaimWhenLedgerFails(t *testing.T) {
	store := &fakeStore{acquireFn: func(bool) (bool, error) { return true, nil }}
	rec := &fakeRecorder{err: errors.New("insert failed")}
	g := newGuard(t, store, rec)

	assert.True(t, g.Admit(context.Background(), uuid.New(), heat, time.Now(), false))
}

func TestNewGuardValidates(t *testing.T) {
	_, err := NewGuard(GuardParams{Logger: logger.New(logger.Options{Output: io.Discard}), Store: &fakeStore{}, Window: 0})
	assert.Error(t, err)
}
