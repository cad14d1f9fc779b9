// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package queue_test

import (
	"sync"
	"testing"

	"github.com/sondehub/sondehub-go/internal/queue"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := queue.New[int](100)

	for i := 100; i > 0; i-- {
		require.True(t, q.Push(i))
	}

	for i := 100; i > 0; i-- {
		value, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, value)
	}

	// Should be empty now.
	require.True(t, q.IsEmpty())
	_, ok := q.Pop()
	require.False(t, ok)
}

func TestQueueOrder(t *testing.T) {
	q := queue.New[int](100)

	for i := 0; i < 50; i++ {
		q.Push(i)
	}

	for i := 0; i < 10; i++ {
		value, _ := q.Pop()
		require.Equal(t, i, value)
	}

	for i := 50; i < 100; i++ {
		q.Push(i)
	}

	for i := 10; i < 100; i++ {
		value, _ := q.Pop()
		require.Equal(t, i, value)
	}
}

func TestQueueMaxSize(t *testing.T) {
	q := queue.New[int](10)

	for i := 0; i < 10; i++ {
		require.True(t, q.Push(i))
	}
	require.False(t, q.Push(10))
	require.True(t, q.IsFull())

	for i := 0; i < 10; i++ {
		value, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, value)
	}

	_, ok := q.Pop()
	require.False(t, ok)
}

func TestQueueUnbounded(t *testing.T) {
	q := queue.New[string](0)

	for i := 0; i < 1000; i++ {
		require.True(t, q.Push("x"))
	}
	require.False(t, q.IsFull())
	require.Equal(t, 1000, q.Size())
}

func TestQueueDrain(t *testing.T) {
	q := queue.New[int](0)
	require.Nil(t, q.Drain())

	// Wrap the circular buffer before draining.
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	q.Pop()
	q.Pop()
	for i := 5; i < 12; i++ {
		q.Push(i)
	}

	require.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, q.Drain())
	require.True(t, q.IsEmpty())
}

func TestQueueAsync(t *testing.T) {
	q := queue.New[int](0)
	var wg sync.WaitGroup

	// Start multiple goroutines to enqueue elements.
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			q.Push(val)
		}(i)
	}
	wg.Wait()

	// Pop from several consumers; every value must be seen exactly once.
	seen := make(chan int, 100)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					return
				}
				seen <- v
			}
		}()
	}
	wg.Wait()
	close(seen)

	counts := make(map[int]int)
	for v := range seen {
		counts[v]++
	}
	require.Len(t, counts, 100)
	for i := 0; i < 100; i++ {
		require.Equal(t, 1, counts[i], i)
	}
}
