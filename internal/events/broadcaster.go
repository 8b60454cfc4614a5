package events

import (
	"log"
	"sync"
	"time"
)

// Type identifies which part of the core state changed.
type Type string

const (
	TypeHomeWeather Type = "home_weather"
	TypeFavorites   Type = "favorites"
	TypeSession     Type = "session"
)

// Event is a state-changed notification emitted at the core/UI boundary.
type Event struct {
	Type      Type        `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Broadcaster fans out events to subscribers. The core pushes notifications
// through it without depending on any specific UI-binding mechanism.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]chan Event),
	}
}

// Subscribe registers a subscriber and returns its event channel. An existing
// subscriber with the same id is replaced.
func (b *Broadcaster) Subscribe(id string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.subs[id]; ok {
		close(existing)
		delete(b.subs, id)
	}

	// Buffered so a slow subscriber never blocks the publisher.
	ch := make(chan Event, 64)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Publish sends the event to every subscriber without blocking. Events to a
// full subscriber channel are dropped.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("events: subscriber %s channel full, dropping %s event", id, ev.Type)
		}
	}
}
