package favorites

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycast/internal/cache"
	"skycast/internal/events"
	"skycast/internal/weather"
)

func newTestController(t *testing.T) (*Controller, *cache.Partitions) {
	t.Helper()

	store, err := cache.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	parts := cache.NewPartitions(store)
	return NewController(parts, events.NewBroadcaster()), parts
}

func TestToggleFlipsMembership(t *testing.T) {
	ctrl, _ := newTestController(t)

	assert.False(t, ctrl.IsFavorite(7))
	assert.True(t, ctrl.Toggle(7, nil))
	assert.True(t, ctrl.IsFavorite(7))
	assert.False(t, ctrl.Toggle(7, nil))
	assert.False(t, ctrl.IsFavorite(7))
}

func TestToggleKeepsInsertionOrder(t *testing.T) {
	ctrl, _ := newTestController(t)

	ctrl.Toggle(3, nil)
	ctrl.Toggle(1, nil)
	ctrl.Toggle(2, nil)
	ctrl.Toggle(1, nil) // remove
	ctrl.Toggle(1, nil) // re-add at the end

	assert.Equal(t, []int{3, 2, 1}, ctrl.IDs())
}

func TestTogglePersistsIDsAsynchronously(t *testing.T) {
	ctrl, parts := newTestController(t)

	ctrl.Toggle(42, nil)

	require.Eventually(t, func() bool {
		ids := parts.FavoriteIDs(context.Background())
		return len(ids) == 1 && ids[0] == 42
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleAddSeedsWeatherCache(t *testing.T) {
	ctrl, parts := newTestController(t)

	snap := weather.Snapshot{CityID: 42, Name: "Bergen"}
	ctrl.Toggle(42, &snap)

	require.Eventually(t, func() bool {
		entry, ok := parts.FavoriteWeather(context.Background(), 42)
		return ok && entry.Data.Name == "Bergen"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleRemoveDeletesCachedWeather(t *testing.T) {
	ctrl, parts := newTestController(t)

	snap := weather.Snapshot{CityID: 42, Name: "Bergen"}
	ctrl.Toggle(42, &snap)
	require.Eventually(t, func() bool {
		_, ok := parts.FavoriteWeather(context.Background(), 42)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.Toggle(42, nil)

	require.Eventually(t, func() bool {
		_, ok := parts.FavoriteWeather(context.Background(), 42)
		return !ok && len(parts.FavoriteIDs(context.Background())) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetIDsHydratesWithoutWriting(t *testing.T) {
	ctrl, parts := newTestController(t)

	ctrl.SetIDs([]int{5, 6, 5})

	assert.Equal(t, []int{5, 6}, ctrl.IDs(), "duplicates are dropped")
	assert.True(t, ctrl.IsFavorite(5))

	// Hydration must not round-trip back into the store.
	require.Never(t, func() bool {
		return len(parts.FavoriteIDs(context.Background())) != 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestResetClearsMemoryOnly(t *testing.T) {
	ctrl, parts := newTestController(t)

	ctrl.Toggle(9, nil)
	require.Eventually(t, func() bool {
		return len(parts.FavoriteIDs(context.Background())) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.Reset()

	assert.Empty(t, ctrl.IDs())
	assert.False(t, ctrl.IsFavorite(9))
	// The persisted side is the session holder's job, not Reset's.
	assert.Equal(t, []int{9}, parts.FavoriteIDs(context.Background()))
}
