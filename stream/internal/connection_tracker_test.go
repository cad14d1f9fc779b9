// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"errors"
	"testing"

	"github.com/sondehub/sondehub-go/stream/internal"
	"github.com/stretchr/testify/require"
)

type fakeClient struct{ id int }

func requireClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		require.Fail(t, "channel should be closed")
	}
}

func requireOpen(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		require.Fail(t, "channel should be open")
	default:
	}
}

func TestConnectionTrackerLifecycle(t *testing.T) {
	tracker := internal.NewConnectionTracker[*fakeClient]()

	current := tracker.Current()
	require.Nil(t, current.Client)
	requireClosed(t, current.Down.Done())

	attempt := tracker.Attempt()
	require.Equal(t, uint64(1), attempt)

	client := &fakeClient{1}
	require.NoError(t, tracker.Connect(client))

	current = tracker.Current()
	require.Same(t, client, current.Client)
	requireOpen(t, current.Down.Done())

	lost := errors.New("lost")
	tracker.Disconnect(attempt, lost)
	requireClosed(t, current.Down.Done())

	current = tracker.Current()
	require.Nil(t, current.Client)
	require.ErrorIs(t, current.Error, lost)
}

func TestConnectionTrackerIgnoresStaleAttempt(t *testing.T) {
	tracker := internal.NewConnectionTracker[*fakeClient]()

	old := tracker.Attempt()
	require.NoError(t, tracker.Connect(&fakeClient{1}))
	tracker.Disconnect(old, errors.New("first"))

	attempt := tracker.Attempt()
	require.NoError(t, tracker.Connect(&fakeClient{2}))

	// A late callback from the first transport must not drop the second.
	tracker.Disconnect(old, errors.New("stale"))
	current := tracker.Current()
	require.Equal(t, 2, current.Client.id)
	requireOpen(t, current.Down.Done())

	tracker.Disconnect(attempt, nil)
	require.Nil(t, tracker.Current().Client)
}

func TestConnectionTrackerErrorBeforeConnect(t *testing.T) {
	tracker := internal.NewConnectionTracker[*fakeClient]()

	attempt := tracker.Attempt()
	failed := errors.New("failed during CONNECT")
	tracker.Disconnect(attempt, failed)

	require.ErrorIs(t, tracker.Connect(&fakeClient{1}), failed)
	require.Nil(t, tracker.Current().Client)
}
