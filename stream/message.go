// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"encoding/json"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
)

func (c *Client) onPublishReceived(pb paho.PublishReceived) (bool, error) {
	c.deliveryMu.RLock()
	defer c.deliveryMu.RUnlock()

	if ClientState(c.lifecycle.Load()) != Started {
		return false, nil
	}

	p := pb.Packet
	c.log.Packet(c.ctx, "publish received", p)

	// Messages for a filter that was just removed can still be in flight.
	if !c.subscribed(p.Topic) {
		return false, nil
	}

	msg := &Message{Topic: p.Topic, Payload: p.Payload}
	if !c.options.Raw {
		if err := json.Unmarshal(p.Payload, &msg.Document); err != nil ||
			msg.Document == nil {
			c.log.Warn(c.ctx, "dropping undecodable message",
				slog.String("topic", p.Topic),
				slog.Int("payload_size", len(p.Payload)),
			)
			return true, nil
		}
	}

	c.options.Metrics.Message()
	for handler := range c.messageHandlers.All() {
		handler(c.ctx, msg)
	}
	return true, nil
}

func (c *Client) subscribed(topic string) bool {
	for _, filter := range c.topics.Snapshot() {
		if IsTopicFilterMatch(c.wireTopic(filter), topic) {
			return true
		}
	}
	return false
}
