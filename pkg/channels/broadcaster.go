package channels

import (
	"sync"
	"sync/atomic"
)

type subscriber[T any] struct {
	ch      chan T
	dropped atomic.Int32
}

// Broadcaster delivers every published value to all current subscribers.
//
// Delivery is non-blocking: a subscriber whose buffer is full misses the
// value and the drop is counted. Subscribers may join and leave at any time.
// After Close, all subscriber channels are closed and later subscriptions
// receive an already-closed channel.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber[T]
	nextID int
	closed bool

	dropped atomic.Int64
}

// NewBroadcaster creates an open Broadcaster with no subscribers.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subs: make(map[int]*subscriber[T]),
	}
}

// Subscribe registers a new subscriber with the given buffer size and returns
// its channel together with a function that unsubscribes and closes it.
// The returned function is safe to call more than once.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan T)
		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++

	sub := &subscriber[T]{ch: make(chan T, max(buffer, 0))}
	b.subs[id] = sub

	var once sync.Once

	return sub.ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

// Publish sends msg to every subscriber without blocking.
// Publishing on a closed Broadcaster is a no-op.
func (b *Broadcaster[T]) Publish(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if err := SendNonBlock(sub.ch, msg); err != nil {
			sub.dropped.Add(1)
			b.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel. It is safe to call more than once.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Dropped returns the number of values missed by any subscriber over the
// Broadcaster's lifetime, including subscribers that have since left.
func (b *Broadcaster[T]) Dropped() int {
	return int(b.dropped.Load())
}

// SubscriberStats reports delivery counters for one subscriber.
type SubscriberStats struct {
	Dropped int
}

// Stats returns counters for the active subscribers in no particular order.
func (b *Broadcaster[T]) Stats() []SubscriberStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := make([]SubscriberStats, 0, len(b.subs))
	for _, sub := range b.subs {
		stats = append(stats, SubscriberStats{
			Dropped: int(sub.dropped.Load()),
		})
	}

	return stats
}

func (b *Broadcaster[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	close(sub.ch)
	delete(b.subs, id)
}
