// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync"

// Cache is a generic thread-safe LRU cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	order   lruList[K, V]
	limit   int
	onEvict func(K, V)

	hits   uint64
	misses uint64
}

// New creates a cache holding at most limit entries.
// A limit of 0 means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		limit:   limit,
	}
}

// OnEvict sets a callback invoked, under the cache lock, for every value
// evicted, deleted or cleared. It must not call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(node)
	return node.value, true
}

// Set stores a value, replacing any previous value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the cache lock, so it is called at most once per miss.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits++
		c.order.moveToFront(node)
		return node.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		return value, err
	}
	c.setLocked(key, value)
	return value, nil
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(node)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.order.removeOldest(); node != nil; node = c.order.removeOldest() {
		delete(c.entries, node.key)
		if c.onEvict != nil {
			c.onEvict(node.key, node.value)
		}
	}
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:      len(c.entries),
		Capacity: c.limit,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	if node, ok := c.entries[key]; ok {
		old := node.value
		node.value = value
		c.order.moveToFront(node)
		if c.onEvict != nil {
			c.onEvict(key, old)
		}
		return
	}

	c.entries[key] = c.order.pushFront(key, value)
	for c.limit > 0 && len(c.entries) > c.limit {
		c.removeLocked(c.order.tail)
	}
}

// removeLocked drops node. Caller must hold c.mu.
func (c *Cache[K, V]) removeLocked(node *lruNode[K, V]) {
	c.order.unlink(node)
	delete(c.entries, node.key)
	if c.onEvict != nil {
		c.onEvict(node.key, node.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit, 0 when unlimited.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
}
