// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"iter"
	"sync"
)

type handlerNode[T any] struct {
	value T
	prev  *handlerNode[T]
	next  *handlerNode[T]
}

// Handlers is an ordered list of event handlers. Handlers can be removed at
// any time through the function returned from Add.
type Handlers[T any] struct {
	mu    sync.RWMutex
	first *handlerNode[T]
	last  *handlerNode[T]
	len   int
}

func NewHandlers[T any]() *Handlers[T] {
	return &Handlers[T]{}
}

// Add appends a handler and returns a function that removes it. The remove
// function is idempotent.
func (l *Handlers[T]) Add(value T) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node := &handlerNode[T]{value: value, prev: l.last}
	if l.last == nil {
		l.first = node
	} else {
		l.last.next = node
	}
	l.last = node
	l.len++

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if node == nil {
			return
		}

		if node.prev == nil {
			l.first = node.next
		} else {
			node.prev.next = node.next
		}

		if node.next == nil {
			l.last = node.prev
		} else {
			node.next.prev = node.prev
		}

		l.len--
		node = nil
	}
}

// Len returns the number of registered handlers.
func (l *Handlers[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.len
}

// All iterates the handlers in registration order.
func (l *Handlers[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		l.mu.RLock()
		defer l.mu.RUnlock()

		for curr := l.first; curr != nil && yield(curr.value); {
			curr = curr.next
		}
	}
}
