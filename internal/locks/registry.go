// Package locks holds tentative slot locks: advisory, in-memory and
// self-expiring. They signal "someone is looking at this slot" to other
// viewers of a resource and never block a booking.
package locks

import (
	"sync"
	"time"

	"bookfast/pkg/logger"
	"bookfast/pkg/model"
	"bookfast/pkg/ttlcache"
)

const DefaultTTL = 30 * time.Second

type Option func(*Registry)

// WithClock replaces time.Now. Tests use it to step through expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Publisher broadcasts a lock change to the viewers of a resource.
type Publisher interface {
	Publish(resourceID string, evt model.Event) int
}

type Registry struct {
	// announce pairs each change with its broadcast so viewers never see a
	// stale unlock after a newer lock.
	announce sync.Mutex
	cache    *ttlcache.Cache[model.SlotKey, model.TentativeLock]
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewRegistry(ttl time.Duration, log *logger.Logger, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		cache: ttlcache.New[model.SlotKey, model.TentativeLock](),
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Now() time.Time {
	return r.now()
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Acquire stores the lock for the exact slot, replacing any current holder
// with a fresh expiry. ttl <= 0 uses the registry default.
func (r *Registry) Acquire(slot model.Slot, userID string, ttl time.Duration) (model.TentativeLock, model.Event) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	now := r.now()
	lock := model.TentativeLock{
		Slot:      slot,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
	}

	key := slot.Key()
	if prev, ok := r.cache.Get(key, now); ok && prev.Value.UserID != userID {
		r.log.Debug("Tentative lock taken over",
			"resource_id", slot.ResourceID,
			"previous_user_id", prev.Value.UserID,
			"user_id", userID,
		)
	}
	r.cache.Set(key, lock, lock.ExpiresAt)

	return lock, model.SlotLockedEvent(lock, now)
}

// Release drops the lock for slot. The bool is false when nothing was held,
// in which case the event must not be published.
func (r *Registry) Release(slot model.Slot) (model.Event, bool) {
	entry, ok := r.cache.Delete(slot.Key())
	if !ok {
		return model.Event{}, false
	}
	return model.SlotUnlockedEvent(entry.Value.Slot, r.now()), true
}

func (r *Registry) Get(slot model.Slot) (model.TentativeLock, bool) {
	entry, ok := r.cache.Get(slot.Key(), r.now())
	if !ok {
		return model.TentativeLock{}, false
	}
	return entry.Value, true
}

// ForResource lists the live locks on one resource, for clients that just joined.
func (r *Registry) ForResource(resourceID string) []model.TentativeLock {
	entries := r.cache.Snapshot(r.now(), func(k model.SlotKey, _ model.TentativeLock) bool {
		return k.ResourceID == resourceID
	})
	out := make([]model.TentativeLock, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// SweepExpired removes every lock whose expiry is <= now and returns the
// freed slots.
func (r *Registry) SweepExpired(now time.Time) []model.Slot {
	evicted := r.cache.Sweep(now)
	slots := make([]model.Slot, 0, len(evicted))
	for _, e := range evicted {
		slots = append(slots, e.Value.Slot)
	}
	return slots
}

// AcquireAndPublish is Acquire followed by its slot:locked broadcast. It
// returns the lock and how many viewers accepted the event.
func (r *Registry) AcquireAndPublish(slot model.Slot, userID string, ttl time.Duration, pub Publisher) (model.TentativeLock, int) {
	r.announce.Lock()
	defer r.announce.Unlock()

	lock, evt := r.Acquire(slot, userID, ttl)
	return lock, pub.Publish(slot.ResourceID, evt)
}

// ReleaseAndPublish is Release followed by its slot:unlocked broadcast, which
// is skipped when nothing was held.
func (r *Registry) ReleaseAndPublish(slot model.Slot, pub Publisher) (bool, int) {
	r.announce.Lock()
	defer r.announce.Unlock()

	evt, released := r.Release(slot)
	if !released {
		return false, 0
	}
	return true, pub.Publish(slot.ResourceID, evt)
}

// SweepAndPublish is SweepExpired with one slot:unlocked broadcast per freed
// slot. A lock taken while the sweep runs is announced after it.
func (r *Registry) SweepAndPublish(now time.Time, pub Publisher) []model.Slot {
	r.announce.Lock()
	defer r.announce.Unlock()

	freed := r.SweepExpired(now)
	for _, slot := range freed {
		pub.Publish(slot.ResourceID, model.SlotUnlockedEvent(slot, now))
	}
	return freed
}

// Len counts stored locks, including expired ones awaiting a sweep.
func (r *Registry) Len() int {
	return r.cache.Len()
}
