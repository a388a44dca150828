// Package lru provides the small bounded cache used to memoize collaborator
// responses. Entries are evicted least-recently-used once the configured
// capacity is reached, so a long-running process cannot accumulate one entry
// per distinct input forever.
package lru

import "sync"

type entry[K comparable, V any] struct {
	key  K
	val  V
	prev *entry[K, V]
	next *entry[K, V]
}

// Cache is a fixed-capacity LRU map, safe for concurrent use. All operations
// are O(1).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*entry[K, V]
	// Sentinel ring: head.next is the most recently used entry,
	// tail.prev the eviction candidate.
	head *entry[K, V]
	tail *entry[K, V]
}

// New creates a cache holding at most capacity entries. Panics if capacity
// is not positive; a zero-capacity cache has no meaningful behavior.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &entry[K, V]{}
	tail := &entry[K, V]{}
	head.next = tail
	tail.prev = head

	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*entry[K, V], capacity),
		head:     head,
		tail:     tail,
	}
}

// Get returns the cached value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.touch(e)
	return e.val, true
}

// Put stores key=val, evicting the least recently used entry when the cache
// is full.
func (c *Cache[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.val = val
		c.touch(e)
		return
	}

	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.unlink(victim)
		delete(c.items, victim.key)
	}

	e := &entry[K, V]{key: key, val: val}
	c.items[key] = e
	c.link(e)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *Cache[K, V]) link(e *entry[K, V]) {
	e.next = c.head.next
	e.prev = c.head
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache[K, V]) touch(e *entry[K, V]) {
	c.unlink(e)
	c.link(e)
}
