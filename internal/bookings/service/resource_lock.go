package service

import "sync"

// resourceLocks is a keyed mutex: one lock per resource id, created on demand
// and dropped once nobody holds or waits on it.
type resourceLocks struct {
	mu      sync.Mutex
	entries map[string]*resourceLock
}

type resourceLock struct {
	mu   sync.Mutex
	refs int
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{entries: make(map[string]*resourceLock)}
}

// Lock blocks until the caller holds resourceID and returns the release func.
func (l *resourceLocks) Lock(resourceID string) func() {
	l.mu.Lock()
	e, ok := l.entries[resourceID]
	if !ok {
		e = &resourceLock{}
		l.entries[resourceID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, resourceID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *resourceLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
