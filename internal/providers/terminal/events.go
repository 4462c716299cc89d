package terminal

import (
	"sync"
	"sync/atomic"
)

// Hub fans session events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full is dropped and its channel closed, so a
// slow display cannot stall a session's output pump.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// Subscription receives events for all sessions, or for the ids it was
// created with.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	ids     map[string]struct{}
	hub     *Hub
	dropped atomic.Bool
	once    sync.Once
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. With no ids it receives every event.
func (h *Hub) Subscribe(ids ...string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}
	if len(ids) > 0 {
		sub.ids = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			sub.ids[id] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Close unregisters the subscription and closes C. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Dropped reports whether the hub closed this subscription for falling behind.
func (s *Subscription) Dropped() bool {
	return s.dropped.Load()
}

func (s *Subscription) wants(id string) bool {
	if s.ids == nil {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Publish delivers ev to every interested subscriber.
func (h *Hub) Publish(ev Event) {
	var slow []*Subscription

	h.mu.RLock()
	for sub := range h.subs {
		if sub.dropped.Load() || !sub.wants(ev.SessionID) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Store(true)
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.remove(sub)
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	})
}
