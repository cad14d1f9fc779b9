// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"context"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
	"github.com/sondehub/sondehub-go/stream/internal"
)

// AddTopic adds a topic filter to the Topic Set. Adding a filter that is
// already present is a no-op. If the client is connected, the subscription
// is made in the background; a failure forces a reconnect, which subscribes
// to the whole set again.
func (c *Client) AddTopic(topic string) {
	if !c.topics.Add(topic) {
		return
	}
	c.log.Info(c.ctx, "topic added", slog.String("topic", topic))
	c.syncTopic(topic)
}

// RemoveTopic removes a topic filter from the Topic Set. If the client is
// connected, the unsubscription is made in the background; a failure forces
// a reconnect.
func (c *Client) RemoveTopic(topic string) {
	if !c.topics.Remove(topic) {
		return
	}
	c.log.Info(c.ctx, "topic removed", slog.String("topic", topic))
	c.syncTopic(topic)
}

// Topics returns a sorted snapshot of the Topic Set.
func (c *Client) Topics() []string {
	return c.topics.Snapshot()
}

// syncTopic brings the live subscription for one filter in line with the
// Topic Set. While disconnected nothing is sent; the next connection
// subscribes to the whole set.
func (c *Client) syncTopic(topic string) {
	current := c.conn.Current()
	if current.Client == nil {
		return
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.stopping {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		c.subscriptionsMu.Lock()
		defer c.subscriptionsMu.Unlock()

		// A reconnect in the meantime has already synced the whole set.
		now := c.conn.Current()
		if now.Attempt != current.Attempt || now.Client == nil {
			return
		}

		ctx, cancel := now.Down.With(c.ctx)
		defer cancel()

		// Membership is checked under the lock, so racing add and remove
		// calls settle on the final state of the set.
		var err error
		if c.topics.Contains(topic) {
			err = c.subscribe(ctx, now.Client, topic)
		} else {
			err = c.unsubscribe(ctx, now.Client, topic)
		}
		if err != nil && c.ctx.Err() == nil {
			c.log.Err(ctx, err)
			c.conn.Disconnect(now.Attempt, err)
		}
	}()
}

// resubscribe subscribes to every filter in the Topic Set on a fresh
// connection and returns the filters subscribed.
func (c *Client) resubscribe(
	ctx context.Context,
	current internal.CurrentConnection[PahoClient],
) ([]string, error) {
	c.subscriptionsMu.Lock()
	defer c.subscriptionsMu.Unlock()

	ctx, cancel := current.Down.With(ctx)
	defer cancel()

	topics := c.topics.Snapshot()
	for _, topic := range topics {
		if err := c.subscribe(ctx, current.Client, topic); err != nil {
			return nil, err
		}
	}
	return topics, nil
}

func (c *Client) subscribe(
	ctx context.Context,
	client PahoClient,
	topic string,
) error {
	packet := &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: c.wireTopic(topic),
			QoS:   0,
		}},
	}
	c.log.Packet(ctx, "subscribe", packet)

	suback, err := client.Subscribe(ctx, packet)
	c.log.Packet(ctx, "suback", suback)
	switch {
	case err != nil:
		c.options.Metrics.SubscribeFailure()
		return &SubscribeError{Topic: topic, wrapped: err}
	case suback != nil && len(suback.Reasons) > 0 && suback.Reasons[0] >= 0x80:
		c.options.Metrics.SubscribeFailure()
		return &SubscribeError{Topic: topic, ReasonCode: suback.Reasons[0]}
	}
	return nil
}

func (c *Client) unsubscribe(
	ctx context.Context,
	client PahoClient,
	topic string,
) error {
	packet := &paho.Unsubscribe{Topics: []string{c.wireTopic(topic)}}
	c.log.Packet(ctx, "unsubscribe", packet)

	unsuback, err := client.Unsubscribe(ctx, packet)
	c.log.Packet(ctx, "unsuback", unsuback)
	switch {
	case err != nil:
		c.options.Metrics.SubscribeFailure()
		return &SubscribeError{Topic: topic, Unsubscribe: true, wrapped: err}
	case unsuback != nil && len(unsuback.Reasons) > 0 && unsuback.Reasons[0] >= 0x80:
		c.options.Metrics.SubscribeFailure()
		return &SubscribeError{
			Topic:       topic,
			Unsubscribe: true,
			ReasonCode:  unsuback.Reasons[0],
		}
	}
	return nil
}

func (c *Client) wireTopic(topic string) string {
	return c.options.TopicPrefix + "/" + topic
}
