package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"skycast/internal/cache"
	"skycast/internal/favorites"
	"skycast/internal/resolver"
)

// Scheduler periodically revalidates the home-weather cache and refreshes
// cached snapshots for favorite cities. It only rewrites entries for ids that
// are currently favorites, so it never grows the favorites-weather map.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  *resolver.Resolver
	favorites *favorites.Controller
	client    resolver.Client
	cache     *cache.Partitions
	interval  time.Duration
}

// New creates a Scheduler.
func New(interval time.Duration, res *resolver.Resolver, favs *favorites.Controller, client resolver.Client, parts *cache.Partitions) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  res,
		favorites: favs,
		client:    client,
		cache:     parts,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.refresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) refresh() {
	log.Println("scheduler: running weather refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.resolver.Home(ctx); err != nil {
		log.Printf("scheduler: home refresh failed: %v", err)
	}

	ids := s.favorites.IDs()
	for _, id := range ids {
		snap, err := s.client.ByCityID(ctx, id)
		if err != nil {
			log.Printf("scheduler: favorite %d refresh failed: %v", id, err)
			continue
		}

		// Guard against a toggle that removed the id mid-refresh.
		if !s.favorites.IsFavorite(id) {
			continue
		}
		if err := s.cache.SetFavoriteWeather(ctx, id, *snap); err != nil {
			log.Printf("scheduler: caching favorite %d failed: %v", id, err)
		}
	}

	log.Println("scheduler: completed weather refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
