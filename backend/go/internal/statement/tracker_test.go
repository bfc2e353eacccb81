package statement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedMemory/backend/go/internal/models"
)

func TestNewWindowKey(t *testing.T) {
	assert.Equal(t, NewWindowKey("u1", "Head Ache"), NewWindowKey("u1", "headache"))
	assert.Equal(t, "u1:*", NewWindowKey("u1", "").String())
	assert.NotEqual(t, NewWindowKey("u1", "头痛"), NewWindowKey("u2", "头痛"))
}

func TestTrackerKeepsPrecisionAcrossFollowUps(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryWindowStore(), 0).WithClock(fixedClock)
	key := NewWindowKey("u1", "头痛")

	obs, err := tr.Observe(ctx, key, openWindow(7, models.PrecisionWeekRange, true))
	require.NoError(t, err)
	assert.Equal(t, models.WindowAppend, obs.Action)
	assert.Nil(t, obs.Previous)

	obs, err = tr.Observe(ctx, key, openWindow(30, models.PrecisionVagueNearterm, true))
	require.NoError(t, err)
	assert.Contains(t, []models.WindowAction{models.WindowKeep, models.WindowWiden, models.WindowMerge}, obs.Action)
	assert.GreaterOrEqual(t, obs.Window.Precision, models.PrecisionWeekRange)
	require.NotNil(t, obs.Previous)

	current, err := tr.Current(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, obs.Window.Precision, current.Precision)

	other, err := tr.Current(ctx, NewWindowKey("u1", "咳嗽"))
	require.NoError(t, err)
	assert.Nil(t, other, "keys are tracked independently")
}

func TestTrackerReplacesWindowOnAppend(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryWindowStore(), 7).WithClock(fixedClock)
	key := NewWindowKey("u1", "")

	end := daysBefore(90)
	_, err := tr.Observe(ctx, key, models.TimeWindow{Start: daysBefore(100), End: &end, Precision: models.PrecisionExactDate})
	require.NoError(t, err)

	fresh := openWindow(14, models.PrecisionVagueRecent, true)
	obs, err := tr.Observe(ctx, key, fresh)
	require.NoError(t, err)
	assert.Equal(t, models.WindowAppend, obs.Action)
	assert.Equal(t, fresh, obs.Window)

	current, err := tr.Current(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, models.PrecisionVagueRecent, current.Precision)
}

type failingStore struct{}

func (failingStore) LoadWindow(context.Context, WindowKey) (*models.TimeWindow, error) {
	return nil, errors.New("boom")
}

func (failingStore) SaveWindow(context.Context, WindowKey, models.TimeWindow) error {
	return errors.New("boom")
}

func TestTrackerPropagatesStoreErrors(t *testing.T) {
	_, err := NewTracker(failingStore{}, 7).Observe(context.Background(), NewWindowKey("u1", "x"), openWindow(1, models.PrecisionDayRange, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
