// Package ttlcache is a key to (value, expiry) table with an explicit sweep.
// Reads treat an entry as absent from its expiry instant onward even before
// a sweep removes it, so callers never observe stale entries.
package ttlcache

import (
	"sync"
	"time"
)

type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	ExpiresAt time.Time
}

type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]Entry[K, V]
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]Entry[K, V]),
	}
}

// Set stores or overwrites the entry for key.
func (c *Cache[K, V]) Set(key K, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry[K, V]{Key: key, Value: value, ExpiresAt: expiresAt}
}

// Get returns the live entry for key at now.
func (c *Cache[K, V]) Get(key K, now time.Time) (Entry[K, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !now.Before(entry.ExpiresAt) {
		return Entry[K, V]{}, false
	}
	return entry, true
}

// Delete removes key and reports whether it was present, expired or not.
func (c *Cache[K, V]) Delete(key K) (Entry[K, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return entry, ok
}

// Sweep removes and returns every entry with ExpiresAt <= now.
func (c *Cache[K, V]) Sweep(now time.Time) []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted []Entry[K, V]
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			evicted = append(evicted, entry)
			delete(c.entries, key)
		}
	}
	return evicted
}

// Snapshot returns the live entries at now that satisfy match. A nil match
// selects everything.
func (c *Cache[K, V]) Snapshot(now time.Time, match func(K, V) bool) []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var live []Entry[K, V]
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			continue
		}
		if match == nil || match(key, entry.Value) {
			live = append(live, entry)
		}
	}
	return live
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
