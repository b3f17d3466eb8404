// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU cache.
//
//	c := cache.New[string, int](100)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// Set and GetOrCreate evict the least recently used entry once the cache
// holds more than its limit. An optional callback sees each evicted value,
// which lets callers return pooled memory.
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation
// (it contains a mutex).
package cache
