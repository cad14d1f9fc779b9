// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"net/http"
	"strings"

	"github.com/sondehub/sondehub-go/internal/envconfig"
)

// ClientConfigFromEnv parses a stream client configuration from well-known
// environment variables. It only returns an error if a variable fails to
// parse; unset variables keep their defaults.
func ClientConfigFromEnv() (ConnectionProvider, *ClientOptions, error) {
	opts := &ClientOptions{}
	endpoint := DefaultFeedEndpoint

	for key, val := range envconfig.Vars("SONDEHUB_") {
		switch key {
		case "SONDEHUB_FEED_ENDPOINT":
			endpoint = val

		case "SONDEHUB_TOPIC_PREFIX":
			opts.TopicPrefix = val

		case "SONDEHUB_TOPICS":
			for _, topic := range strings.Split(val, ",") {
				if topic = strings.TrimSpace(topic); topic != "" {
					opts.Topics = append(opts.Topics, topic)
				}
			}

		case "SONDEHUB_CLIENT_ID":
			opts.ClientID = val

		case "SONDEHUB_KEEP_ALIVE":
			keepAlive, err := envconfig.ParseDuration(val)
			if err != nil {
				return nil, nil, &InvalidArgumentError{
					message: "could not parse MQTT keep-alive",
					wrapped: err,
				}
			}
			opts.KeepAlive = keepAlive
		}
	}

	provider := WebSocketConnection(
		FeedResolver(endpoint, http.DefaultClient),
		nil,
	)
	return provider, opts, nil
}

// NewClientFromEnv constructs a stream client from environment variables.
// Explicit options take precedence over the environment.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	provider, envOpts, err := ClientConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewClient(provider, append([]ClientOption{envOpts}, opts...)...), nil
}
