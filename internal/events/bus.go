package events

import (
	"slices"
	"sync"
)

const eventBufferSize = 16

// Subscription delivers published events to one subscriber.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh chan Event
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// send delivers e without blocking.
func (s *Subscription) send(e Event) bool {
	select {
	case s.eventCh <- e:
		return true
	default:
		// Drop if buffer full
		return false
	}
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// Bus fans events out to subscribers. It is safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	subs    []*Subscription
	closed  bool
	dropped int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber. On a closed bus the subscription is
// returned already done.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := newSubscription()
	if b.closed {
		s.close()
		return s
	}
	b.subs = append(b.subs, s)
	return s
}

// Unsubscribe removes s and signals its Done channel.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.Index(b.subs, s)
	if i < 0 {
		return
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	s.close()
}

// Publish sends e to every subscriber. Subscribers with a full buffer miss it.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, s := range b.subs {
		if !s.send(e) {
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were lost to full buffers.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close signals every subscriber and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.close()
	}
	b.subs = nil
}
