package resolver

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"skycast/internal/cache"
	"skycast/internal/events"
	"skycast/internal/location"
	"skycast/internal/weather"
)

// Client is the slice of the fetch client the resolver needs.
type Client interface {
	ByCoordinates(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
	ByCityName(ctx context.Context, name string) (*weather.Snapshot, error)
	ByCityID(ctx context.Context, id int) (*weather.Snapshot, error)
}

// Source says where a resolved snapshot came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// Result is a resolved weather snapshot. When an error is returned alongside
// a non-nil Snapshot, the snapshot is the last good (cached) data and the
// error is the out-of-band failure of the fresh fetch.
type Result struct {
	Snapshot *weather.Snapshot
	Source   Source
	SavedAt  time.Time
}

// Resolver decides the fetch-vs-cache strategy for each request intent.
type Resolver struct {
	client Client
	cache  *cache.Partitions
	loc    location.Provider
	bus    *events.Broadcaster

	mu      sync.Mutex
	granted bool
}

func New(client Client, parts *cache.Partitions, loc location.Provider, bus *events.Broadcaster) *Resolver {
	return &Resolver{
		client: client,
		cache:  parts,
		loc:    loc,
		bus:    bus,
	}
}

// ensurePermission asks the location collaborator for access. A grant is
// remembered so a manual refresh never re-prompts; a denial is re-queried
// each time since only an external settings change can lift it.
func (r *Resolver) ensurePermission(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.granted {
		return true, nil
	}

	granted, err := r.loc.Request(ctx)
	if err != nil {
		return false, err
	}
	r.granted = granted
	return granted, nil
}

// Home resolves weather for the user's current location with a
// stale-while-revalidate strategy: the cached last-known-location snapshot is
// the fallback candidate, a fresh fetch replaces it on success and re-caches,
// and on any failure the last good snapshot is kept and returned together
// with the error. Permission denial blocks fresh acquisition but does not
// retract already-cached data.
func (r *Resolver) Home(ctx context.Context) (Result, error) {
	var res Result
	if entry, ok := r.cache.HomeWeather(ctx); ok {
		res = Result{
			Snapshot: &entry.Data,
			Source:   SourceCache,
			SavedAt:  time.UnixMilli(entry.SavedAt),
		}
	}

	granted, err := r.ensurePermission(ctx)
	if err != nil {
		return res, err
	}
	if !granted {
		return res, location.ErrPermissionDenied
	}

	coords, err := r.loc.Coordinates(ctx)
	if err != nil {
		return res, err
	}

	snap, err := r.client.ByCoordinates(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return res, err
	}

	res = Result{Snapshot: snap, Source: SourceLive, SavedAt: time.Now()}

	if err := r.cache.SetHomeWeather(ctx, *snap); err != nil {
		log.Printf("resolver: caching home weather failed: %v", err)
	}
	if r.bus != nil {
		r.bus.Publish(events.Event{Type: events.TypeHomeWeather, Data: snap})
	}
	return res, nil
}

// ByCityName resolves a searched city directly. There is no cache fallback:
// a failed search reports its error, and results are not cached as favorites.
func (r *Resolver) ByCityName(ctx context.Context, name string) (Result, error) {
	snap, err := r.client.ByCityName(ctx, strings.TrimSpace(name))
	if err != nil {
		return Result{}, err
	}
	return Result{Snapshot: snap, Source: SourceLive, SavedAt: time.Now()}, nil
}

// ByCityID resolves a city id for the detail view. On a live-fetch failure it
// falls back to the favorites-weather cache, then to the home-weather cache
// only when the cached snapshot is for the same id. A cache hit suppresses
// the fetch error; otherwise the original error surfaces.
func (r *Resolver) ByCityID(ctx context.Context, id int) (Result, error) {
	snap, fetchErr := r.client.ByCityID(ctx, id)
	if fetchErr == nil {
		return Result{Snapshot: snap, Source: SourceLive, SavedAt: time.Now()}, nil
	}

	if entry, ok := r.cache.FavoriteWeather(ctx, id); ok {
		return Result{
			Snapshot: &entry.Data,
			Source:   SourceCache,
			SavedAt:  time.UnixMilli(entry.SavedAt),
		}, nil
	}

	if entry, ok := r.cache.HomeWeather(ctx); ok && entry.Data.CityID == id {
		return Result{
			Snapshot: &entry.Data,
			Source:   SourceCache,
			SavedAt:  time.UnixMilli(entry.SavedAt),
		}, nil
	}

	return Result{}, fetchErr
}
