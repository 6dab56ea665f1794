package cache

import (
	"container/list"
	"sync"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a thread-safe least-recently-used map.
// A positive capacity bounds the number of entries; when a Put exceeds it the
// least recently used entry is dropped and handed to the eviction callback.
// A capacity of zero or less disables the bound.
type LRU[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	mu       sync.Mutex
	onEvict  func(key K, value V)
}

// NewLRU creates an LRU with the given capacity. Capacity <= 0 means unbounded.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// OnEvict registers a callback invoked for entries dropped by the capacity bound.
// The callback runs with the cache lock held and must not call back into the cache.
// Explicit removals (Remove, RemoveIf, Drain) return the value to the caller instead.
func (c *LRU[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).value, true
	}

	var zero V
	return zero, false
}

// Peek returns the value for key without touching its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		return elem.Value.(*lruEntry[K, V]).value, true
	}

	var zero V
	return zero, false
}

// Put adds or replaces the value for key and marks it as recently used.
// It returns the replaced value, if any.
func (c *LRU[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		old := entry.value
		entry.value = value
		return old, true
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})

	if c.capacity > 0 && c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			entry := c.unlink(oldest)
			if c.onEvict != nil {
				c.onEvict(entry.key, entry.value)
			}
		}
	}

	var zero V
	return zero, false
}

// Remove deletes key and returns its value.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	return c.RemoveIf(key, nil)
}

// RemoveIf deletes key only when match reports true for its current value.
// A nil match always removes. The check and removal are atomic.
func (c *LRU[K, V]) RemoveIf(key K, match func(V) bool) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if match != nil && !match(entry.value) {
		var zero V
		return zero, false
	}
	c.unlink(elem)
	return entry.value, true
}

// Range calls fn for every entry from most to least recently used until fn returns false.
// The cache is locked for the duration; fn must not call back into the cache.
func (c *LRU[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*lruEntry[K, V])
		if !fn(entry.key, entry.value) {
			return
		}
	}
}

// Drain removes every entry and returns the values, most recently used first.
func (c *LRU[K, V]) Drain() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*lruEntry[K, V]).value)
	}
	c.items = make(map[K]*list.Element)
	c.order.Init()
	return out
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity; zero means unbounded.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// Must be called with lock held.
func (c *LRU[K, V]) unlink(elem *list.Element) *lruEntry[K, V] {
	c.order.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	return entry
}
