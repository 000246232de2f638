package receiver

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventBus fans out Events to subscribers, grounded on the teacher's
// caster.InMemorySourceService: a mutex-guarded map of subscriber
// channels, context-scoped cleanup, and a buffered channel per
// subscriber so a slow reader can't stall publication.
type EventBus struct {
	mutex       sync.RWMutex
	subscribers map[uuid.UUID]chan Event
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[uuid.UUID]chan Event)}
}

// Subscribe registers a new listener, returning a buffered channel of
// events. The subscription is torn down automatically when ctx is done.
func (b *EventBus) Subscribe(ctx context.Context) <-chan Event {
	id := uuid.New()
	ch := make(chan Event, 64)

	b.mutex.Lock()
	b.subscribers[id] = ch
	b.mutex.Unlock()

	go func() {
		<-ctx.Done()
		b.mutex.Lock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
		b.mutex.Unlock()
	}()

	return ch
}

// Publish delivers ev to every current subscriber. A subscriber whose
// buffer is full drops the event rather than blocking the pipeline.
func (b *EventBus) Publish(ev Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
