// Package realtime fans resource events out to connected clients. Each
// resource has its own topic, created on first subscribe and dropped when
// its last subscriber leaves.
package realtime

import (
	"sync"

	"bookfast/pkg/logger"
	"bookfast/pkg/model"
)

// Subscriber receives events. Send must not block; it returns false when the
// event was dropped.
type Subscriber interface {
	ID() string
	Send(evt model.Event) bool
}

type topic struct {
	mu   sync.Mutex
	subs map[string]Subscriber
}

type Hub struct {
	mu          sync.RWMutex
	topics      map[string]*topic
	memberships map[string]map[string]struct{}
	log         *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics:      make(map[string]*topic),
		memberships: make(map[string]map[string]struct{}),
		log:         log,
	}
}

// Subscribe is idempotent per (subscriber, resource).
func (h *Hub) Subscribe(sub Subscriber, resourceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[resourceID]
	if !ok {
		t = &topic{subs: make(map[string]Subscriber)}
		h.topics[resourceID] = t
		h.log.Debug("Topic created", "resource_id", resourceID)
	}

	t.mu.Lock()
	t.subs[sub.ID()] = sub
	t.mu.Unlock()

	joined, ok := h.memberships[sub.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[sub.ID()] = joined
	}
	joined[resourceID] = struct{}{}
}

// Unsubscribe reports whether the subscriber was a member of the topic.
func (h *Hub) Unsubscribe(sub Subscriber, resourceID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(sub.ID(), resourceID)
}

// UnsubscribeAll drops every subscription of sub and returns how many it had.
func (h *Hub) UnsubscribeAll(sub Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := h.memberships[sub.ID()]
	n := 0
	for resourceID := range joined {
		if h.removeLocked(sub.ID(), resourceID) {
			n++
		}
	}
	return n
}

func (h *Hub) removeLocked(subID, resourceID string) bool {
	t, ok := h.topics[resourceID]
	if !ok {
		return false
	}

	t.mu.Lock()
	_, member := t.subs[subID]
	delete(t.subs, subID)
	empty := len(t.subs) == 0
	t.mu.Unlock()

	if empty {
		delete(h.topics, resourceID)
		h.log.Debug("Topic removed", "resource_id", resourceID)
	}

	if joined, ok := h.memberships[subID]; ok {
		delete(joined, resourceID)
		if len(joined) == 0 {
			delete(h.memberships, subID)
		}
	}
	return member
}

// Publish delivers evt to every current subscriber of resourceID and returns
// the number that accepted it. Events published in sequence for one resource
// reach each subscriber in that order.
func (h *Hub) Publish(resourceID string, evt model.Event) int {
	// t.mu is taken before h.mu is released so the topic cannot be dropped
	// and replaced between lookup and delivery.
	h.mu.RLock()
	t, ok := h.topics[resourceID]
	if !ok {
		h.mu.RUnlock()
		return 0
	}
	t.mu.Lock()
	h.mu.RUnlock()
	defer t.mu.Unlock()

	delivered := 0
	for id, sub := range t.subs {
		if sub.Send(evt) {
			delivered++
			continue
		}
		h.log.Warn("Dropped event for slow subscriber",
			"subscriber_id", id,
			"resource_id", resourceID,
			"event_type", evt.Type,
		)
	}
	return delivered
}

func (h *Hub) IsSubscribed(sub Subscriber, resourceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.memberships[sub.ID()][resourceID]
	return ok
}

func (h *Hub) Subscribers(resourceID string) int {
	h.mu.RLock()
	t, ok := h.topics[resourceID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (h *Hub) Topics() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}
