// ABOUTME: Thread-safe TTL cache of idempotency keys and the results they produced.
// ABOUTME: Used by capture so a retried submission replays its first response instead of storing twice.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// State describes what the cache knows about a key.
type State int

const (
	// Absent means the key was unknown (or expired) and is now claimed by the caller.
	Absent State = iota
	// Pending means another caller has claimed the key and not yet completed it.
	Pending
	// Done means the key has a stored result.
	Done
)

type entry[V any] struct {
	timestamp time.Time
	element   *list.Element
	value     V
	done      bool
}

// Cache maps keys to results for a limited time. Keys move through
// Claim -> Complete (or Release). Insertion order is kept in a linked list
// so the oldest key can be evicted in O(1) when the cache is full.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // keys, oldest at front
	ttl     time.Duration
	maxSize int // <= 0 means unbounded
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum number of keys.
// A background goroutine periodically drops expired entries.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Claim atomically looks up key. If it is unknown or expired the caller
// now owns it and must call Complete or Release. Otherwise the returned
// State says whether a result is available yet.
func (c *Cache[V]) Claim(key string) (V, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if e, ok := c.entries[key]; ok && !c.expired(e) {
		if e.done {
			return e.value, Done
		}
		return zero, Pending
	}

	c.insertLocked(key)
	return zero, Absent
}

// Complete stores the result for a claimed key. The TTL restarts from now.
func (c *Cache[V]) Complete(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = c.insertLocked(key)
	}
	e.value = value
	e.done = true
	e.timestamp = c.now()
	c.order.MoveToBack(e.element)
}

// Release drops a claim so the key can be retried.
func (c *Cache[V]) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Len returns the number of tracked keys, including expired ones not yet cleaned up.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) expired(e *entry[V]) bool {
	return c.now().Sub(e.timestamp) >= c.ttl
}

// insertLocked adds or resets key as a fresh claim. Must be called with mu held.
func (c *Cache[V]) insertLocked(key string) *entry[V] {
	if e, ok := c.entries[key]; ok {
		var zero V
		e.value, e.done = zero, false
		e.timestamp = c.now()
		c.order.MoveToBack(e.element)
		return e
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry[V]{
		timestamp: c.now(),
		element:   c.order.PushBack(key),
	}
	c.entries[key] = e
	return e
}

func (c *Cache[V]) removeLocked(key string) {
	if e, ok := c.entries[key]; ok {
		c.order.Remove(e.element)
		delete(c.entries, key)
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.removeLocked(key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

func (c *Cache[V]) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if c.expired(e) {
			c.order.Remove(e.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
