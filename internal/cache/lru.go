// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

// lruNode is a node in a doubly-linked LRU list.
// The node stores its key for O(1) deletion from the parent map.
type lruNode[K comparable, V any] struct {
	key   K
	value V
	prev  *lruNode[K, V]
	next  *lruNode[K, V]
}

// lruList is a doubly-linked list ordered by recency.
// The list is not thread-safe; callers must handle synchronization.
//
// The head is the most recently used, tail is least recently used.
type lruList[K comparable, V any] struct {
	head *lruNode[K, V]
	tail *lruNode[K, V]
	len  int
}

// pushFront adds a new node at the front and returns it.
func (l *lruList[K, V]) pushFront(key K, value V) *lruNode[K, V] {
	node := &lruNode[K, V]{key: key, value: value}
	l.linkFront(node)
	return node
}

// moveToFront marks node as most recently used.
func (l *lruList[K, V]) moveToFront(node *lruNode[K, V]) {
	if node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// removeOldest unlinks and returns the least recently used node, or nil.
func (l *lruList[K, V]) removeOldest() *lruNode[K, V] {
	node := l.tail
	if node != nil {
		l.unlink(node)
	}
	return node
}

func (l *lruList[K, V]) linkFront(node *lruNode[K, V]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// unlink removes a node from the list and clears its links.
func (l *lruList[K, V]) unlink(node *lruNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	l.len--
}
