package session

import (
	"context"
	"sync"
	"time"

	"github.com/fuboru/panel-backend/pkg/logger"
)

type EventType string

const (
	EventSignedIn    EventType = "SIGNED_IN"
	EventSignedOut   EventType = "SIGNED_OUT"
	EventUserDeleted EventType = "USER_DELETED"
)

// Event is an auth-state change pushed to every session cache and to the
// affected user's websocket connections.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// Bus fans auth events out to subscribers.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a channel of events that is closed once ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

const subscriberBuffer = 64

// LocalBus delivers events in-process. Slow subscribers lose events
// rather than blocking publishers.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan Event)}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping auth event for slow subscriber", map[string]interface{}{
				"subscriber": id,
				"type":       event.Type,
			})
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}
