// Package ringlog provides a fixed-capacity, thread-safe event log with
// oldest-entry eviction. It backs the blocked-script and anomaly
// histories and the dashboard event feed.
package ringlog

import "sync"

const defaultCapacity = 100

// Log is a bounded append-only log. When full, the oldest entry is
// evicted to make room.
type Log[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	count int
	cap   int
}

// New creates a log with the given capacity.
func New[T any](capacity int) *Log[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log[T]{
		items: make([]T, capacity),
		cap:   capacity,
	}
}

// Append inserts an entry, evicting the oldest if the log is full.
func (l *Log[T]) Append(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == l.cap {
		l.items[l.head] = item
		l.head = (l.head + 1) % l.cap
		return
	}
	l.items[(l.head+l.count)%l.cap] = item
	l.count++
}

// Newest returns entries newest-first.
func (l *Log[T]) Newest() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.items[(l.head+l.count-1-i)%l.cap]
	}
	return out
}

// Oldest returns entries in chronological order (oldest first).
func (l *Log[T]) Oldest() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.items[(l.head+i)%l.cap]
	}
	return out
}

// Len returns the number of entries currently held.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}
