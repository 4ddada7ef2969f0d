package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/shared/id"
)

// Level grades a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient user-visible message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// EventKind distinguishes bus events.
type EventKind string

const (
	EventState        EventKind = "state"
	EventNotification EventKind = "notification"
)

// Event is published on every state change and every notification.
type Event struct {
	ID           string        `json:"id"`
	Kind         EventKind     `json:"kind"`
	Version      uint64        `json:"version"`
	Notification *Notification `json:"notification,omitempty"`
	Time         time.Time     `json:"time"`
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	log *zap.Logger

	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log, subs: make(map[uint64]chan Event)}
}

// Subscribe registers a subscriber with the given buffer. The returned
// cancel func unregisters it and closes the channel; it is idempotent.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	key := b.nextID
	b.nextID++
	b.subs[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, key)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber with room for it.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = id.NewEventID().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for key, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Debug("subscriber lagging, event dropped",
				zap.Uint64("subscriber", key),
				zap.String("kind", string(e.Kind)))
		}
	}
}

// Subscribers counts live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
