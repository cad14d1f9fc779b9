// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialBackoffInterval(t *testing.T) {
	e := &ExponentialBackoff{
		MaxAttempts: 6,
		MinInterval: 100 * time.Millisecond,
		MaxInterval: time.Second,
		NoJitter:    true,
	}

	for attempt, expected := range map[uint64]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		4: 800 * time.Millisecond,
		5: time.Second,
	} {
		wait, ok := e.interval(attempt)
		require.True(t, ok)
		require.InDelta(t, float64(expected), float64(wait), float64(time.Millisecond))
	}

	_, ok := e.interval(6)
	require.False(t, ok)
}

func TestExponentialBackoffJitter(t *testing.T) {
	e := &ExponentialBackoff{MinInterval: time.Second}
	for range 20 {
		wait, ok := e.interval(1)
		require.True(t, ok)
		require.InDelta(t, float64(time.Second), float64(wait), float64(time.Second)/20)
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	e := &ExponentialBackoff{NoJitter: true}

	wait, ok := e.interval(1)
	require.True(t, ok)
	require.Equal(t, defaultMinInterval, wait)

	wait, ok = e.interval(100)
	require.True(t, ok)
	require.InDelta(t, float64(defaultMaxInterval), float64(wait), float64(time.Millisecond))
}
