package favorites

import (
	"context"
	"log"
	"sync"
	"time"

	"skycast/internal/cache"
	"skycast/internal/events"
	"skycast/internal/weather"
)

const persistTimeout = 5 * time.Second

// Controller holds the in-memory favorite city ids. Membership here is the
// source of truth; the cache store is synchronized asynchronously and treated
// as advisory, so a persistence failure never fails a toggle.
type Controller struct {
	mu  sync.RWMutex
	ids []int
	set map[int]struct{}

	cache *cache.Partitions
	bus   *events.Broadcaster
}

func NewController(parts *cache.Partitions, bus *events.Broadcaster) *Controller {
	return &Controller{
		set:   make(map[int]struct{}),
		cache: parts,
		bus:   bus,
	}
}

// IsFavorite reports membership against in-memory state only.
func (c *Controller) IsFavorite(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.set[id]
	return ok
}

// IDs returns a copy of the favorite ids in insertion order.
func (c *Controller) IDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

// SetIDs replaces the in-memory set, used once at startup to hydrate from
// persisted storage. It deliberately writes nothing back to the cache.
func (c *Controller) SetIDs(ids []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ids = c.ids[:0]
	c.set = make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := c.set[id]; dup {
			continue
		}
		c.set[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
}

// Reset clears the in-memory set without touching the cache store. The
// session holder purges the persisted side itself on sign-out.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ids = nil
	c.set = make(map[int]struct{})
}

// Toggle flips membership for id and reports the new state. The persisted id
// sequence is synchronized in a detached task; when removing, the id's cached
// snapshot is deleted in the same logical operation, and when adding, a
// caller-supplied snapshot seeds the favorites-weather cache.
func (c *Controller) Toggle(id int, snap *weather.Snapshot) bool {
	c.mu.Lock()
	_, had := c.set[id]
	if had {
		delete(c.set, id)
		for i, v := range c.ids {
			if v == id {
				c.ids = append(c.ids[:i], c.ids[i+1:]...)
				break
			}
		}
	} else {
		c.set[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
	ids := make([]int, len(c.ids))
	copy(ids, c.ids)
	c.mu.Unlock()

	go c.persist(ids, id, had, snap)

	if c.bus != nil {
		c.bus.Publish(events.Event{Type: events.TypeFavorites, Data: ids})
	}
	return !had
}

func (c *Controller) persist(ids []int, id int, removed bool, snap *weather.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.cache.SetFavoriteIDs(ctx, ids); err != nil {
		log.Printf("favorites: persist ids failed: %v", err)
	}

	if removed {
		if err := c.cache.RemoveFavoriteWeather(ctx, id); err != nil {
			log.Printf("favorites: remove cached weather for %d failed: %v", id, err)
		}
		return
	}

	if snap != nil {
		if err := c.cache.SetFavoriteWeather(ctx, id, *snap); err != nil {
			log.Printf("favorites: cache weather for %d failed: %v", id, err)
		}
	}
}
