package eventbus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	// EventResourceChanged is published after a mutating request to the
	// commerce API succeeded.
	EventResourceChanged EventType = "resource_changed"
	// EventAdminChanged is published after an admin account was written or removed.
	EventAdminChanged EventType = "admin_changed"
)

type Event struct {
	ID        string
	Type      EventType
	Resource  string
	Path      string
	CreatedAt time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish never blocks; subscribers with a full buffer miss the event.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			slog.Warn("event dropped, subscriber buffer full",
				"subscriber_id", id,
				"event_id", event.ID,
				"type", event.Type,
				"resource", event.Resource,
			)
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, resource, path string) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Resource:  resource,
		Path:      path,
		CreatedAt: time.Now(),
	})
}
