// Package event provides a small typed publish/subscribe bus. Delivery is
// synchronous, on the publishing goroutine, in subscription order.
package event

import "sync"

// Handler receives published events
type Handler[E any] func(E)

// Bus fans events out to its subscribers
type Bus[E any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription[E]
}

type subscription[E any] struct {
	id int
	fn Handler[E]
}

// Subscribe registers a handler and returns a function that removes it
func (b *Bus[E]) Subscribe(fn Handler[E]) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription[E]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[E]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.handlers {
		if s.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers e to a snapshot of the current subscribers. Handlers
// may subscribe, unsubscribe or publish again without deadlocking.
func (b *Bus[E]) Publish(e E) {
	b.mu.RLock()
	handlers := make([]Handler[E], len(b.handlers))
	for i, s := range b.handlers {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}

// Len returns the number of subscribers
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
