package ttlcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func TestGet_ExpiryBoundary(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1, t0.Add(30*time.Second))

	_, ok := c.Get("k", t0)
	assert.True(t, ok, "present at set time")

	_, ok = c.Get("k", t0.Add(30*time.Second-time.Nanosecond))
	assert.True(t, ok, "present just before expiry")

	_, ok = c.Get("k", t0.Add(30*time.Second))
	assert.False(t, ok, "absent at expiry")

	assert.Equal(t, 1, c.Len(), "expired entries stay until swept")
}

func TestSet_Overwrites(t *testing.T) {
	c := New[string, string]()
	c.Set("k", "alice", t0.Add(time.Second))
	c.Set("k", "bob", t0.Add(time.Minute))

	entry, ok := c.Get("k", t0.Add(2*time.Second))
	require.True(t, ok)
	assert.Equal(t, "bob", entry.Value)
	assert.Equal(t, 1, c.Len())
}

func TestDelete(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1, t0.Add(time.Second))

	_, ok := c.Delete("k")
	assert.True(t, ok)
	_, ok = c.Delete("k")
	assert.False(t, ok, "second delete is a no-op")
}

func TestSweep(t *testing.T) {
	c := New[string, int]()
	c.Set("old", 1, t0.Add(10*time.Second))
	c.Set("edge", 2, t0.Add(20*time.Second))
	c.Set("fresh", 3, t0.Add(40*time.Second))

	evicted := c.Sweep(t0.Add(20 * time.Second))

	keys := make([]string, 0, len(evicted))
	for _, e := range evicted {
		keys = append(keys, e.Key)
	}
	assert.ElementsMatch(t, []string{"old", "edge"}, keys)
	assert.Equal(t, 1, c.Len())
	assert.Empty(t, c.Sweep(t0.Add(20*time.Second)))
}

func TestSnapshot(t *testing.T) {
	c := New[string, int]()
	c.Set("a1", 1, t0.Add(time.Minute))
	c.Set("a2", 2, t0.Add(time.Second))
	c.Set("b1", 3, t0.Add(time.Minute))

	live := c.Snapshot(t0.Add(5*time.Second), func(k string, _ int) bool { return k[0] == 'a' })
	require.Len(t, live, 1)
	assert.Equal(t, "a1", live[0].Key)

	assert.Len(t, c.Snapshot(t0, nil), 3)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set(n%5, n, t0.Add(time.Duration(n)*time.Second))
			c.Get(n%5, t0)
			c.Sweep(t0.Add(10 * time.Second))
			c.Snapshot(t0, nil)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 5)
}
