// ABOUTME: Tests for the idempotency cache used by quick capture.
// ABOUTME: Validates claim/complete/release, TTL expiration, size limits, eviction, and concurrency safety.

package dedupe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(ttl time.Duration, maxSize int) (*Cache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](ttl, maxSize)
	c.now = clock.Now
	return c, clock
}

func TestCache_Claim_NewKey(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 100)
	defer cache.Close()

	v, state := cache.Claim("new-key")
	assert.Equal(t, Absent, state)
	assert.Empty(t, v)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_Claim_Pending(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")

	_, state := cache.Claim("key")
	assert.Equal(t, Pending, state, "second claim before Complete should see Pending")
}

func TestCache_Complete(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")
	cache.Complete("key", "result-1")

	v, state := cache.Claim("key")
	assert.Equal(t, Done, state)
	assert.Equal(t, "result-1", v)
}

func TestCache_Complete_WithoutClaim(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 100)
	defer cache.Close()

	cache.Complete("key", "direct")

	v, state := cache.Claim("key")
	assert.Equal(t, Done, state)
	assert.Equal(t, "direct", v)
}

func TestCache_Release(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")
	cache.Release("key")
	assert.Equal(t, 0, cache.Len())

	_, state := cache.Claim("key")
	assert.Equal(t, Absent, state, "released key can be claimed again")

	// Releasing an unknown key is a no-op
	cache.Release("never-seen")
}

func TestCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")
	cache.Complete("key", "old")

	clock.Advance(59 * time.Second)
	_, state := cache.Claim("key")
	assert.Equal(t, Done, state)

	clock.Advance(time.Second)
	v, state := cache.Claim("key")
	assert.Equal(t, Absent, state, "expired key is claimed afresh")
	assert.Empty(t, v)
}

func TestCache_Expiry_StuckClaim(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")
	clock.Advance(2 * time.Minute)

	_, state := cache.Claim("key")
	assert.Equal(t, Absent, state, "abandoned claims expire")
}

func TestCache_Complete_RestartsTTL(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 100)
	defer cache.Close()

	cache.Claim("key")
	clock.Advance(50 * time.Second)
	cache.Complete("key", "v")
	clock.Advance(50 * time.Second)

	_, state := cache.Claim("key")
	assert.Equal(t, Done, state)
}

func TestCache_EvictionOrder(t *testing.T) {
	cache, clock := newTestCache(5*time.Minute, 3)
	defer cache.Close()

	for _, k := range []string{"first", "second", "third"} {
		cache.Claim(k)
		cache.Complete(k, k)
		clock.Advance(time.Millisecond)
	}

	// Adding a fourth key evicts the oldest
	cache.Claim("fourth")
	assert.Equal(t, 3, cache.Len())

	_, state := cache.Claim("first")
	assert.Equal(t, Absent, state, "first should be evicted")

	// Claiming "first" again evicted "second"
	_, state = cache.Claim("third")
	assert.Equal(t, Done, state)
	_, state = cache.Claim("second")
	assert.Equal(t, Absent, state, "second should be evicted")
}

func TestCache_Unbounded(t *testing.T) {
	cache, _ := newTestCache(5*time.Minute, 0)
	defer cache.Close()

	for i := range 50 {
		cache.Claim(string(rune('A' + i)))
	}
	assert.Equal(t, 50, cache.Len())
}

func TestCache_Cleanup(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 100)
	defer cache.Close()

	cache.Claim("cleanup-1")
	cache.Complete("cleanup-2", "v")
	clock.Advance(30 * time.Second)
	cache.Claim("fresh")
	clock.Advance(31 * time.Second)

	cache.runCleanup()

	assert.Equal(t, 1, cache.Len(), "cleanup should remove expired entries")
	_, state := cache.Claim("fresh")
	assert.Equal(t, Pending, state)
}

func TestCache_Claim_Atomic(t *testing.T) {
	cache := New[string](5*time.Minute, 100)
	defer cache.Close()

	const numGoroutines = 100

	var winners int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// All goroutines try to claim the same key simultaneously
	for range numGoroutines {
		go func() {
			defer wg.Done()
			if _, state := cache.Claim("contested-key"); state == Absent {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one goroutine should win the claim")
}

func TestCache_Close(t *testing.T) {
	cache := New[int](5*time.Minute, 100)

	cache.Complete("before-close", 1)

	// Close should not panic and should stop the cleanup goroutine
	cache.Close()

	// Multiple closes should not panic
	cache.Close()
}
