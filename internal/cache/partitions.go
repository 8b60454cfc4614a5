package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"skycast/internal/weather"
)

// Storage keys for the user-scoped cache partitions. Each partition is an
// independently serialized JSON value.
const (
	keyHomeWeather      = "home_location_weather"
	keyFavorites        = "favorites"
	keyFavoritesWeather = "favorites_weather"

	// Reserved legacy key; not load-bearing, still purged on sign-out.
	keyHomeWeatherUpdatedAt = "home_location_weather_updated_at"
)

// Entry wraps a snapshot with the unix-millisecond time it was written.
// There is no TTL here: staleness is the caller's concern, not the cache's.
type Entry struct {
	Data    weather.Snapshot `json:"data"`
	SavedAt int64            `json:"savedAt"`
}

// Partitions exposes the typed cache partitions over a Store. Every reader
// fails open: absent, unreadable, or corrupt values behave as missing data,
// never as a caller-visible error.
type Partitions struct {
	store Store
}

func NewPartitions(store Store) *Partitions {
	return &Partitions{store: store}
}

// HomeWeather returns the last-known-location snapshot, if any.
func (p *Partitions) HomeWeather(ctx context.Context) (*Entry, bool) {
	raw, err := p.store.Get(ctx, keyHomeWeather)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("cache: home weather read failed: %v", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Printf("cache: home weather unreadable, treating as absent: %v", err)
		return nil, false
	}
	if entry.SavedAt == 0 {
		return nil, false
	}
	return &entry, true
}

// SetHomeWeather overwrites the last-known-location snapshot.
func (p *Partitions) SetHomeWeather(ctx context.Context, snap weather.Snapshot) error {
	raw, err := json.Marshal(Entry{Data: snap, SavedAt: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	return p.store.Set(ctx, keyHomeWeather, raw)
}

// FavoriteIDs returns the persisted favorite city ids in insertion order.
// Non-numeric entries in the stored sequence are dropped.
func (p *Partitions) FavoriteIDs(ctx context.Context) []int {
	raw, err := p.store.Get(ctx, keyFavorites)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("cache: favorite ids read failed: %v", err)
		}
		return nil
	}

	var parsed []interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("cache: favorite ids unreadable, treating as empty: %v", err)
		return nil
	}

	ids := make([]int, 0, len(parsed))
	for _, v := range parsed {
		if n, ok := v.(float64); ok {
			ids = append(ids, int(n))
		}
	}
	return ids
}

// SetFavoriteIDs replaces the persisted favorite id sequence.
func (p *Partitions) SetFavoriteIDs(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, keyFavorites, raw)
}

func (p *Partitions) favoritesWeatherMap(ctx context.Context) map[string]Entry {
	raw, err := p.store.Get(ctx, keyFavoritesWeather)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("cache: favorites weather read failed: %v", err)
		}
		return map[string]Entry{}
	}

	var m map[string]Entry
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Printf("cache: favorites weather unreadable, treating as empty: %v", err)
		return map[string]Entry{}
	}
	if m == nil {
		m = map[string]Entry{}
	}
	return m
}

func (p *Partitions) setFavoritesWeatherMap(ctx context.Context, m map[string]Entry) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, keyFavoritesWeather, raw)
}

// FavoriteWeather returns the cached snapshot for one favorite city id.
func (p *Partitions) FavoriteWeather(ctx context.Context, id int) (*Entry, bool) {
	entry, ok := p.favoritesWeatherMap(ctx)[strconv.Itoa(id)]
	if !ok || entry.SavedAt == 0 {
		return nil, false
	}
	return &entry, true
}

// FavoritesWeather returns cached snapshots for the given ids, in the order
// requested. Ids without a cached snapshot are skipped (lazy population).
func (p *Partitions) FavoritesWeather(ctx context.Context, ids []int) []weather.Snapshot {
	if len(ids) == 0 {
		return nil
	}

	m := p.favoritesWeatherMap(ctx)
	out := make([]weather.Snapshot, 0, len(ids))
	for _, id := range ids {
		if entry, ok := m[strconv.Itoa(id)]; ok && entry.SavedAt != 0 {
			out = append(out, entry.Data)
		}
	}
	return out
}

// SetFavoriteWeather stores one snapshot under its city id.
func (p *Partitions) SetFavoriteWeather(ctx context.Context, id int, snap weather.Snapshot) error {
	m := p.favoritesWeatherMap(ctx)
	m[strconv.Itoa(id)] = Entry{Data: snap, SavedAt: time.Now().UnixMilli()}
	return p.setFavoritesWeatherMap(ctx, m)
}

// SetFavoritesWeather stores a batch of snapshots keyed by their city ids,
// all with the same write time.
func (p *Partitions) SetFavoritesWeather(ctx context.Context, snaps []weather.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	m := p.favoritesWeatherMap(ctx)
	now := time.Now().UnixMilli()
	for _, snap := range snaps {
		m[strconv.Itoa(snap.CityID)] = Entry{Data: snap, SavedAt: now}
	}
	return p.setFavoritesWeatherMap(ctx, m)
}

// RemoveFavoriteWeather drops the cached snapshot for a city id. Removing an
// id that was never cached is a no-op.
func (p *Partitions) RemoveFavoriteWeather(ctx context.Context, id int) error {
	m := p.favoritesWeatherMap(ctx)
	key := strconv.Itoa(id)
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return p.setFavoritesWeatherMap(ctx, m)
}

// PurgeUserData removes every user-scoped partition. Called on sign-out.
func (p *Partitions) PurgeUserData(ctx context.Context) error {
	return p.store.RemoveMany(ctx, []string{
		keyHomeWeather,
		keyHomeWeatherUpdatedAt,
		keyFavorites,
		keyFavoritesWeather,
	})
}
