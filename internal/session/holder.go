package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"skycast/internal/cache"
	"skycast/internal/events"
	"skycast/internal/favorites"
)

// State is the session lifecycle state.
type State string

const (
	StateLoading   State = "loading"
	StateSignedIn  State = "signed_in"
	StateSignedOut State = "signed_out"
)

// User is the opaque signed-in identity delivered by the identity provider.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// Session is a signed-in identity held process-wide.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	StartedAt time.Time `json:"startedAt"`
}

// Holder tracks the current session and gates user-scoped state. It starts
// in Loading and is driven entirely by identity-change notifications from an
// external auth collaborator.
//
// Cache keys are not scoped per identity; the sign-out purge is what keeps
// one account's favorites from leaking into the next on a shared device.
type Holder struct {
	mu      sync.RWMutex
	state   State
	session *Session

	cache     *cache.Partitions
	favorites *favorites.Controller
	bus       *events.Broadcaster
}

func NewHolder(parts *cache.Partitions, favs *favorites.Controller, bus *events.Broadcaster) *Holder {
	return &Holder{
		state:     StateLoading,
		cache:     parts,
		favorites: favs,
		bus:       bus,
	}
}

// Apply consumes an identity-changed notification. A nil user means signed
// out; a signed-in -> signed-out transition cascades into a purge of all
// user-scoped cache partitions and the in-memory favorites. Signing in never
// purges: leftover cached data from a prior session stays visible.
func (h *Holder) Apply(ctx context.Context, user *User) {
	h.mu.Lock()
	prev := h.state
	if user == nil {
		h.state = StateSignedOut
		h.session = nil
	} else {
		h.state = StateSignedIn
		h.session = &Session{
			ID:        uuid.NewString(),
			User:      *user,
			StartedAt: time.Now(),
		}
	}
	h.mu.Unlock()

	if user == nil && prev == StateSignedIn {
		h.purge(ctx)
	}

	if h.bus != nil {
		h.bus.Publish(events.Event{Type: events.TypeSession, Data: string(h.CurrentState())})
	}
}

func (h *Holder) purge(ctx context.Context) {
	if err := h.cache.PurgeUserData(ctx); err != nil {
		log.Printf("session: purge on sign-out failed: %v", err)
	}
	h.favorites.Reset()
}

// CurrentState returns the lifecycle state.
func (h *Holder) CurrentState() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.state
}

// Current returns the state and, when signed in, a copy of the session.
func (h *Holder) Current() (State, *Session) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.session == nil {
		return h.state, nil
	}
	s := *h.session
	return h.state, &s
}
