package utils

import (
	"sync"
	"time"
)

// ttlEntry wraps a stored value with its expiry time.
type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLMap is a mutex-guarded map whose entries expire after a fixed TTL.
// Expired entries are purged lazily when read, so the map never needs a
// background sweeper.
type TTLMap[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[K]ttlEntry[V]
}

// NewTTLMap creates a TTLMap whose entries live for the given duration.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	return &TTLMap[K, V]{
		ttl:   ttl,
		items: make(map[K]ttlEntry[V]),
	}
}

// Set stores a value under the given key, resetting its expiry.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = ttlEntry[V]{
		value:     value,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// Get returns the value for the given key if it exists and has not expired.
// An expired entry is removed on access.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.items[key]
	if !exists {
		var zero V
		return zero, false
	}

	if time.Now().After(entry.expiresAt) {
		delete(m.items, key)

		var zero V
		return zero, false
	}

	return entry.value, true
}

// Delete removes the entry for the given key, if any.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
}

// Len returns the number of stored entries, including any not yet purged.
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}
