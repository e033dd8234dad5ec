package utils

import (
	"container/list"
	"sync"
)

// LRU is a fixed-capacity map that evicts the oldest inserted entry once the
// capacity is reached. Eviction follows insertion order; reads do not refresh
// an entry's position.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	values   map[K]V
	elements map[K]*list.Element
	order    *list.List
}

// NewLRU creates an LRU holding at most capacity entries.
// A capacity below one is treated as one.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}

	return &LRU[K, V]{
		capacity: capacity,
		values:   make(map[K]V, capacity),
		elements: make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached value for the given key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, exists := c.values[key]
	return value, exists
}

// Set stores a value under the given key. Updating an existing key keeps its
// insertion position. When the cache is full the oldest entry is dropped.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.values[key]; exists {
		c.values[key] = value
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			oldestKey := oldest.Value.(K)
			c.order.Remove(oldest)
			delete(c.values, oldestKey)
			delete(c.elements, oldestKey)
		}
	}

	c.values[key] = value
	c.elements[key] = c.order.PushBack(key)
}

// Delete removes the entry for the given key, if any.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.elements[key]
	if !exists {
		return
	}

	c.order.Remove(element)
	delete(c.values, key)
	delete(c.elements, key)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
