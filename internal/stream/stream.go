// Package stream implements a small publish/subscribe broadcaster with
// latest-value replay, used to push cache updates to UI-facing readers and
// connectivity changes to interested components.
package stream

import "sync"

// Broadcaster fans published values out to all current subscribers. A new
// subscriber immediately receives the most recently published value, if any.
//
// Publish never blocks: a subscriber whose buffer is full misses that value.
// Subscribers observing state (rather than counting events) should size the
// buffer accordingly; the latest value is always re-delivered on resubscribe.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	last    T
	hasLast bool
	closed  bool
}

func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Publish delivers v to every subscriber and records it for replay.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = v
	b.hasLast = true
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns the receive channel plus a cancel function. If a value was ever
// published, it is replayed into the channel before Subscribe returns.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	if b.hasLast {
		ch <- b.last
	}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
