package cache

import (
	"sync"
	"time"
)

// LRUCache is a fixed-capacity cache with a per-entry TTL. Entries fall
// out either by going stale or by being the coldest when a write needs
// room.
type LRUCache[T any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	entries map[string]*entry[T]
	head    *entry[T] // most recently used
	tail    *entry[T] // next eviction candidate
}

type entry[T any] struct {
	key        string
	value      T
	staleAfter time.Time
	prev, next *entry[T]
}

// NewLRUCache creates a cache holding at most capacity entries, each
// live for ttl after its last write.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		cap:     capacity,
		ttl:     ttl,
		entries: make(map[string]*entry[T], capacity),
	}
}

// Get returns the live value for key and refreshes its recency. A stale
// entry is dropped on the spot and reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.staleAfter) {
		c.drop(e)
		return zero, false
	}
	c.moveToHead(e)
	return e.value, true
}

// Set stores value under key and restarts its TTL. When the cache is
// full the coldest entry makes way.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.staleAfter = now.Add(c.ttl)
		c.moveToHead(e)
		return
	}

	e := &entry[T]{key: key, value: value, staleAfter: now.Add(c.ttl)}
	c.entries[key] = e
	c.pushHead(e)

	if len(c.entries) > c.cap && c.tail != nil {
		c.drop(c.tail)
	}
}

// Delete removes key if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.drop(e)
	}
}

// CleanExpired drops every stale entry and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for e := c.tail; e != nil; {
		warmer := e.prev
		if now.After(e.staleAfter) {
			c.drop(e)
			removed++
		}
		e = warmer
	}
	return removed
}

// Size returns the current number of entries.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// List plumbing below; every caller already holds mu.

func (c *LRUCache[T]) drop(e *entry[T]) {
	c.unlink(e)
	delete(c.entries, e.key)
}

func (c *LRUCache[T]) pushHead(e *entry[T]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRUCache[T]) moveToHead(e *entry[T]) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushHead(e)
}

func (c *LRUCache[T]) unlink(e *entry[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
