package engine

import (
	"sync"
	"time"
)

// EventType identifies the kind of event emitted on the Engine's bus.
type EventType int

// Event is the envelope carried by the EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

type subscription struct {
	types   map[EventType]bool
	handler func(Event)
}

// EventBus fans domain events out to in-process subscribers. Dispatch is
// synchronous: handlers run on the emitter's goroutine, so they must not
// block on I/O beyond quick store writes.
type EventBus struct {
	mu   sync.RWMutex
	subs []*subscription
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a handler for every event.
func (b *EventBus) Subscribe(handler func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, &subscription{handler: handler})
}

// SubscribeTypes registers a handler for the given event types only.
func (b *EventBus) SubscribeTypes(handler func(Event), types ...EventType) {
	typeSet := make(map[EventType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, &subscription{types: typeSet, handler: handler})
}

func (b *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.types == nil || sub.types[evt.Type] {
			sub.handler(evt)
		}
	}
}
