package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe event bus with namespace
// filtering. Publish never blocks: a subscriber whose buffer is full
// misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*Subscription
	next int
}

// Subscription is a handle to a namespace subscription. Events arrive
// on C until Cancel is called.
type Subscription struct {
	C <-chan Event

	namespace string
	ch        chan Event
	cancel    func()
}

// Cancel removes the subscription from the bus. Safe to call twice.
func (s *Subscription) Cancel() { s.cancel() }

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscribe registers interest in every event whose kind starts with
// namespace. buf controls how many events may queue before drops.
func (b *Bus) Subscribe(namespace string, buf int) *Subscription {
	ch := make(chan Event, buf)
	sub := &Subscription{C: ch, namespace: namespace, ch: ch}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return sub
}

// Publish delivers evt to all matching subscribers without blocking.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.namespace) {
			select {
			case sub.ch <- evt:
			default:
				// Slow subscriber; drop rather than stall the publisher.
			}
		}
	}
}
