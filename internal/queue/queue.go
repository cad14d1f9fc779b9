// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package queue

import "sync"

// Queue is a concurrency-safe generic circular FIFO. Pops never block: an
// empty queue is reported to the caller instead of waiting for producers.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	maxSize int // Zero or negative means unbounded.
	size    int
	enter   int // Points to the next position for entering
	leave   int // Points to the next item that is leaving
}

// New creates a queue holding at most maxSize items. A maxSize of zero or
// less creates an unbounded queue.
func New[T any](maxSize int) *Queue[T] {
	return &Queue[T]{maxSize: maxSize}
}

// Size returns the number of items in the queue.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size
}

// Push adds an item to the end of the queue. It reports false if the queue
// is bounded and full, in which case the item is not added.
func (q *Queue[T]) Push(value T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && q.size == q.maxSize {
		return false
	}

	if len(q.items) == q.size {
		q.resize()
	}

	q.items[q.enter] = value
	q.enter = q.move(q.enter)
	q.size++
	return true
}

// Pop removes and returns the item at the front of the queue. The boolean is
// false if the queue was empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pop()
}

// Drain removes and returns every item currently in the queue, in FIFO
// order. It returns nil for an empty queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil
	}

	out := make([]T, 0, q.size)
	for q.size > 0 {
		v, _ := q.pop()
		out = append(out, v)
	}
	return out
}

// IsEmpty returns whether the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size == 0
}

// IsFull returns whether a bounded queue is at capacity.
func (q *Queue[T]) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.maxSize > 0 && q.size == q.maxSize
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.leave]
	// Release the reference so popped values can be collected.
	q.items[q.leave] = zero
	q.leave = q.move(q.leave)
	q.size--
	return item, true
}

// resize grows the backing slice, keeping the items between leave and the
// old end contiguous at the end of the new slice.
func (q *Queue[T]) resize() {
	oldSize := len(q.items)
	newSize := oldSize*2 + 1

	// [4,5,1,2,3] => [4,5,(1),(2),(3),_,_,_,1,2,3]
	// q.enter = 2, q.leave = 2
	// oldSize = 5, newSize = 11
	// oldLeave = 2, newLeave = 11 - (5 - 2) = 8
	oldLeave := q.leave
	newLeave := newSize - (oldSize - oldLeave)
	if oldSize == 0 {
		q.items = make([]T, newSize)
		return
	}

	q.items = append(q.items, make([]T, newSize-oldSize)...)
	copy(q.items[newLeave:], q.items[oldLeave:oldSize])
	clear(q.items[oldLeave:oldSize])
	q.leave = newLeave
}

// move increments the index circularly.
func (q *Queue[T]) move(index int) int {
	return (index + 1) % len(q.items)
}
