// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"log/slog"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/sondehub/sondehub-go/internal/options"
	"github.com/sondehub/sondehub-go/metrics"
	"github.com/sondehub/sondehub-go/retry"
)

type (
	// ClientOption represents a single option for the stream client.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved options for the stream client.
	ClientOptions struct {
		// Topics is the initial Topic Set. A nil value subscribes to every
		// sonde ("#").
		Topics []string

		// TopicPrefix is prepended to every filter on the wire.
		TopicPrefix string

		// Raw disables JSON decoding of message payloads.
		Raw bool

		ClientID          string
		KeepAlive         time.Duration
		ConnectionRetry   retry.Policy
		ConnectionTimeout time.Duration

		Logger  *slog.Logger
		Metrics *metrics.Metrics

		pahoClientFactory func(*paho.ClientConfig) PahoClient
	}

	// WithTopics sets the initial set of topic filters (sonde serials or MQTT
	// wildcards).
	WithTopics []string

	// WithTopicPrefix sets the topic hierarchy root. Defaults to "sondes".
	WithTopicPrefix string

	// WithRaw delivers payload bytes without decoding them as JSON.
	WithRaw bool

	// WithClientID sets the MQTT client ID. A random one is generated by
	// default.
	WithClientID string

	// WithKeepAlive sets the MQTT keep-alive interval. Defaults to 60s.
	WithKeepAlive time.Duration

	// WithConnectionTimeout bounds each individual connection attempt.
	WithConnectionTimeout time.Duration

	withConnectionRetry struct{ retry.Policy }
	withLogger          struct{ *slog.Logger }
	withMetrics         struct{ *metrics.Metrics }
	withPahoClientFactory func(*paho.ClientConfig) PahoClient
)

const (
	DefaultTopicPrefix       = "sondes"
	DefaultKeepAlive         = 60 * time.Second
	DefaultConnectionTimeout = 30 * time.Second
)

// Apply resolves the provided list of options.
func (o *ClientOptions) Apply(
	opts []ClientOption,
	rest ...ClientOption,
) {
	for opt := range options.Apply[ClientOption](opts, rest...) {
		opt.client(o)
	}
}

func (o *ClientOptions) client(opt *ClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTopics) client(opt *ClientOptions) {
	opt.Topics = []string(o)
}

func (o WithTopicPrefix) client(opt *ClientOptions) {
	opt.TopicPrefix = string(o)
}

func (o WithRaw) client(opt *ClientOptions) {
	opt.Raw = bool(o)
}

func (o WithClientID) client(opt *ClientOptions) {
	opt.ClientID = string(o)
}

func (o WithKeepAlive) client(opt *ClientOptions) {
	opt.KeepAlive = time.Duration(o)
}

func (o WithConnectionTimeout) client(opt *ClientOptions) {
	opt.ConnectionTimeout = time.Duration(o)
}

// WithConnectionRetry sets the policy for reconnect attempts. By default the
// client retries forever with exponential backoff.
func WithConnectionRetry(policy retry.Policy) ClientOption {
	return withConnectionRetry{policy}
}

func (o withConnectionRetry) client(opt *ClientOptions) {
	opt.ConnectionRetry = o.Policy
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return withLogger{logger}
}

func (o withLogger) client(opt *ClientOptions) {
	opt.Logger = o.Logger
}

// WithMetrics records client metrics in the provided collector.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return withMetrics{m}
}

func (o withMetrics) client(opt *ClientOptions) {
	opt.Metrics = o.Metrics
}

// WithPahoClientFactory replaces the MQTT client constructor. This is
// intended for injecting a stub client in tests.
func WithPahoClientFactory(
	factory func(*paho.ClientConfig) PahoClient,
) ClientOption {
	return withPahoClientFactory(factory)
}

func (o withPahoClientFactory) client(opt *ClientOptions) {
	opt.pahoClientFactory = o
}
