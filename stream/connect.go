// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
	"github.com/sondehub/sondehub-go/internal/wallclock"
	"github.com/sondehub/sondehub-go/stream/internal"
)

const disconnectNormalDisconnection byte = 0x00

var errConnectionReplaced = errors.New("connection lost while connecting")

// Start begins connection management in the background. It returns once the
// background goroutine is running; it does not wait for a connection.
func (c *Client) Start() error {
	if !c.lifecycle.CompareAndSwap(uint32(NotStarted), uint32(Started)) {
		return &ClientStateError{ClientState(c.lifecycle.Load())}
	}

	c.log.Info(c.ctx, "starting stream client",
		slog.String("client_id", c.options.ClientID),
		slog.Any("topics", c.topics.Snapshot()),
	)
	go c.manageConnection(c.ctx)
	return nil
}

// Stop ends connection management, disconnects gracefully and waits for the
// background goroutine to exit. No handler runs after Stop returns, so Stop
// must not be called from a message handler.
func (c *Client) Stop() error {
	if !c.lifecycle.CompareAndSwap(uint32(Started), uint32(ShutDown)) {
		return &ClientStateError{ClientState(c.lifecycle.Load())}
	}

	c.log.Info(c.ctx, "stopping stream client")
	c.cancel(&ClientStateError{ShutDown})
	<-c.done

	c.pendingMu.Lock()
	c.stopping = true
	c.pendingMu.Unlock()
	c.pending.Wait()

	// Wait for in-flight message handlers.
	c.deliveryMu.Lock()
	defer c.deliveryMu.Unlock()

	return nil
}

// manageConnection runs the Connecting/Connected/Disconnected state machine
// until the client is stopped.
func (c *Client) manageConnection(ctx context.Context) {
	defer close(c.done)
	defer c.setState(Disconnected)

	for connected := false; ; {
		c.setState(Connecting)

		var current internal.CurrentConnection[PahoClient]
		err := c.options.ConnectionRetry.Start(
			ctx,
			"connect",
			func(ctx context.Context) (bool, error) {
				var err error
				current, err = c.connect(ctx)
				if err != nil {
					c.log.Warn(ctx, "connection attempt failed",
						slog.String("error", err.Error()),
					)
				}
				// Every failure is retried; only Stop ends the loop.
				return true, err
			},
		)
		if ctx.Err() != nil {
			// Stop may land after CONNACK; the connection is still live.
			if err == nil && current.Client != nil {
				c.disconnect(ctx, current, nil)
			}
			return
		}
		if err != nil {
			// The policy gave up; start a fresh retry sequence.
			c.log.Err(ctx, err)
			continue
		}

		topics, err := c.resubscribe(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				c.disconnect(ctx, current, nil)
				return
			}
			c.log.Err(ctx, err)
			c.disconnect(ctx, current, err)
			continue
		}

		// Connected is only reported once the whole Topic Set is live.
		c.setState(Connected)

		reconnect := connected
		connected = true
		if reconnect {
			c.options.Metrics.Reconnect()
		}

		c.log.Info(ctx, "connected",
			slog.Bool("reconnect", reconnect),
			slog.Int("topics", len(topics)),
		)
		event := &ConnectEvent{Reconnect: reconnect, Topics: topics}
		for handler := range c.connectEventHandlers.All() {
			handler(event)
		}

		select {
		case <-current.Down.Done():
			err := c.conn.Current().Error
			if err != nil {
				c.log.Err(ctx, err)
			}
			c.disconnect(ctx, current, err)

		case <-ctx.Done():
			c.disconnect(ctx, current, nil)
			return
		}
	}
}

// connect makes a single connection attempt.
func (c *Client) connect(
	ctx context.Context,
) (internal.CurrentConnection[PahoClient], error) {
	var zero internal.CurrentConnection[PahoClient]

	attempt := c.conn.Attempt()
	c.options.Metrics.ConnectAttempt()

	ctx, cancel := wallclock.Instance.WithTimeout(
		ctx,
		c.options.ConnectionTimeout,
	)
	defer cancel()

	conn, err := c.connectionProvider(ctx)
	if err != nil {
		return zero, err
	}

	client := c.options.pahoClientFactory(&paho.ClientConfig{
		ClientID: c.options.ClientID,
		Conn:     conn,
		OnClientError: func(err error) {
			c.conn.Disconnect(attempt, &ConnectionError{
				message: "connection lost",
				wrapped: err,
			})
		},
		OnServerDisconnect: func(packet *paho.Disconnect) {
			c.log.Packet(c.ctx, "disconnect received", packet)
			c.conn.Disconnect(attempt, &DisconnectError{
				ReasonCode: packet.ReasonCode,
			})
		},
	})
	_ = client.AddOnPublishReceived(c.onPublishReceived)

	packet := &paho.Connect{
		ClientID:   c.options.ClientID,
		CleanStart: true,
		KeepAlive:  uint16(c.options.KeepAlive.Seconds()),
	}
	c.log.Packet(ctx, "connect", packet)

	connack, err := client.Connect(ctx, packet)
	c.log.Packet(ctx, "connack", connack)
	switch {
	case connack != nil && connack.ReasonCode >= 0x80:
		_ = conn.Close()
		return zero, &ConnackError{ReasonCode: connack.ReasonCode}
	case err != nil:
		_ = conn.Close()
		return zero, &ConnectionError{
			message: "error sending CONNECT",
			wrapped: err,
		}
	}

	if err := c.conn.Connect(client); err != nil {
		_ = client.Disconnect(&paho.Disconnect{
			ReasonCode: disconnectNormalDisconnection,
		})
		return zero, err
	}

	// The transport may have failed right after CONNACK.
	current := c.conn.Current()
	if current.Attempt != attempt || current.Client != client {
		_ = client.Disconnect(&paho.Disconnect{
			ReasonCode: disconnectNormalDisconnection,
		})
		return zero, errConnectionReplaced
	}
	return current, nil
}

// disconnect tears down the given connection and notifies the disconnect
// handlers. err is nil for a requested shutdown.
func (c *Client) disconnect(
	ctx context.Context,
	current internal.CurrentConnection[PahoClient],
	err error,
) {
	c.conn.Disconnect(current.Attempt, err)

	packet := &paho.Disconnect{ReasonCode: disconnectNormalDisconnection}
	c.log.Packet(ctx, "disconnect", packet)
	if derr := current.Client.Disconnect(packet); derr != nil {
		c.log.Debug(ctx, "error sending DISCONNECT",
			slog.String("error", derr.Error()),
		)
	}

	c.setState(Disconnected)
	c.log.Info(ctx, "disconnected")

	event := &DisconnectEvent{Error: err}
	for handler := range c.disconnectEventHandlers.All() {
		handler(event)
	}
}
