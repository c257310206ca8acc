// Package changes fans out per-owner change signals to live subscribers.
//
// A signal carries no payload: subscribers re-query the store when they
// see one. Each subscription buffers at most one pending signal, so bursts
// of writes coalesce into a single re-query.
package changes

import (
	"sync"
)

// Hub routes owner-scoped change signals to subscriptions.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives a signal on C after each change for its owner.
type Subscription struct {
	C     <-chan struct{}
	c     chan struct{}
	owner string
	hub   *Hub
	once  sync.Once
}

// Subscribe registers interest in changes to owner's entries.
func (h *Hub) Subscribe(owner string) *Subscription {
	c := make(chan struct{}, 1)
	s := &Subscription{C: c, c: c, owner: owner, hub: h}

	h.mu.Lock()
	set, ok := h.subs[owner]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[owner] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Publish signals every subscription of owner without blocking.
func (h *Hub) Publish(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[owner] {
		select {
		case s.c <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions for owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()

		set := h.subs[s.owner]
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.owner)
		}
	})
}
