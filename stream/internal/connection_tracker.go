// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"context"
	"sync"
)

type (
	// ConnectionTracker tracks the live transport client across reconnects.
	ConnectionTracker[Client comparable] struct {
		current   CurrentConnection[Client]
		currentMu sync.RWMutex
	}

	// CurrentConnection is a snapshot of the tracked connection.
	CurrentConnection[Client comparable] struct {
		// Client is the transport for the live connection, or the zero value
		// while disconnected.
		Client Client

		// Error that caused the last disconnection.
		Error error

		// Down is closed when the connection represented by this snapshot is
		// lost. While disconnected it is already closed.
		Down *Background

		// Attempt counts connection attempts, successful or not. Callbacks
		// from a transport carry the attempt they were created for so stale
		// events from an old transport are ignored.
		Attempt uint64
	}
)

func NewConnectionTracker[Client comparable]() *ConnectionTracker[Client] {
	c := &ConnectionTracker[Client]{}
	c.current.Down = NewBackground(context.Canceled)

	// Down is closed iff the client is disconnected.
	c.current.Down.Close()

	return c
}

// Attempt starts a new connection attempt and returns its number.
func (c *ConnectionTracker[Client]) Attempt() uint64 {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	c.current.Error = nil
	c.current.Attempt++
	return c.current.Attempt
}

// Connect marks the client as live for the current attempt. If the transport
// already failed between Attempt and Connect, that error is returned instead.
func (c *ConnectionTracker[Client]) Connect(client Client) error {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	if c.current.Error != nil {
		return c.current.Error
	}

	c.current.Client = client
	c.current.Down = NewBackground(context.Canceled)
	return nil
}

// Disconnect marks the connection for the given attempt as lost. The first
// recorded error wins.
func (c *ConnectionTracker[Client]) Disconnect(attempt uint64, err error) {
	c.currentMu.Lock()
	defer c.currentMu.Unlock()

	if c.current.Attempt != attempt {
		return
	}

	if c.current.Error == nil {
		c.current.Error = err
	}

	var zero Client
	if c.current.Client == zero {
		return
	}

	c.current.Client = zero
	c.current.Down.Close()
}

// Current returns a snapshot of the tracked connection.
func (c *ConnectionTracker[Client]) Current() CurrentConnection[Client] {
	c.currentMu.RLock()
	defer c.currentMu.RUnlock()

	return c.current
}
