package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventKind names a session state change
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventProfile EventKind = "profile"
)

// Event tells observers (the navigation header) that a user's session changed
type Event struct {
	Kind   EventKind `json:"kind"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

const subscriptionBuffer = 8

// Subscription receives the events of one user
type Subscription struct {
	ID     string
	UserID string
	events chan Event
}

// Events returns the channel events are delivered on. It is closed on Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Broker fans session events out to subscribers. Slow subscribers lose
// events rather than blocking the publisher.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger zerolog.Logger
}

// NewBroker creates an empty broker
func NewBroker(log zerolog.Logger) *Broker {
	return &Broker{
		subs:   make(map[string]*Subscription),
		logger: log,
	}
}

// Subscribe registers interest in the events of userID
func (b *Broker) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		events: make(chan Event, subscriptionBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is harmless.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.events)
}

// Publish delivers e to every subscriber of e.UserID
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.UserID != e.UserID {
			continue
		}
		select {
		case sub.events <- e:
		default:
			b.logger.Debug().Str("subscription", sub.ID).Str("kind", string(e.Kind)).Msg("Dropping session event for slow subscriber")
		}
	}
}

// Len returns the number of active subscriptions
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
