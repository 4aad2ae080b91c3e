// ABOUTME: Thread-safe, size-limited sliding window of conversation entries.
// ABOUTME: Keeps insertion order in a linked list so evicting the oldest entry is O(1).

package history

import (
	"container/list"
	"sync"
)

// DefaultSize is the window capacity used when a non-positive size is requested.
const DefaultSize = 50

// Ring holds the most recent entries up to a fixed capacity. When full, the
// oldest entry is dropped to make room.
type Ring[T any] struct {
	mu      sync.RWMutex
	order   *list.List // oldest at front
	maxSize int
}

// New creates a ring holding at most maxSize entries.
func New[T any](maxSize int) *Ring[T] {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	return &Ring[T]{
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Push appends v, evicting the oldest entry if the ring is at capacity.
// Returns true if an entry was evicted.
func (r *Ring[T]) Push(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := false
	for r.order.Len() >= r.maxSize {
		r.evictOldest()
		evicted = true
	}
	r.order.PushBack(v)
	return evicted
}

// evictOldest removes the front element. Must be called with mu held.
func (r *Ring[T]) evictOldest() {
	if front := r.order.Front(); front != nil {
		r.order.Remove(front)
	}
}

// Snapshot returns the entries oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, r.order.Len())
	for e := r.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(T))
	}
	return out
}

// First returns the oldest retained entry.
func (r *Ring[T]) First() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	front := r.order.Front()
	if front == nil {
		return zero, false
	}
	return front.Value.(T), true
}

// Last returns the newest entry.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	back := r.order.Back()
	if back == nil {
		return zero, false
	}
	return back.Value.(T), true
}

// Len returns the number of retained entries.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int {
	return r.maxSize
}

// Clear drops every entry.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order.Init()
}
