// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/sondehub/sondehub-go/internal/log"
	"github.com/sondehub/sondehub-go/retry"
	"github.com/sondehub/sondehub-go/stream/internal"
)

type (
	// Client is a live-feed subscriber that keeps its subscriptions equal to
	// its Topic Set across reconnects.
	Client struct {
		lifecycle atomic.Uint32
		state     atomic.Uint32

		// Cancelled by Stop. Every background operation derives from it.
		ctx    context.Context
		cancel context.CancelCauseFunc

		// Closed when the connection management goroutine exits.
		done chan struct{}

		conn   *internal.ConnectionTracker[PahoClient]
		topics *internal.TopicSet

		// Serializes SUBSCRIBE/UNSUBSCRIBE traffic so a resubscription pass
		// and a live topic change never interleave.
		subscriptionsMu sync.Mutex

		// Live topic changes in flight.
		pending   sync.WaitGroup
		pendingMu sync.Mutex
		stopping  bool

		// Held for reading while message handlers run, so Stop can wait for
		// them to finish.
		deliveryMu sync.RWMutex

		messageHandlers         *internal.Handlers[MessageHandler]
		connectEventHandlers    *internal.Handlers[ConnectEventHandler]
		disconnectEventHandlers *internal.Handlers[DisconnectEventHandler]

		connectionProvider ConnectionProvider
		options            ClientOptions

		log internal.Logger
	}

	// Message is one telemetry packet received from the feed.
	Message struct {
		// Topic is the full topic name, including the prefix.
		Topic string

		// Payload is the raw message body.
		Payload []byte

		// Document is the decoded JSON payload. It is nil in raw mode.
		Document map[string]any
	}

	// MessageHandler is a user-defined callback function used to handle
	// messages received on the subscribed topics. Handlers run on the
	// transport's delivery goroutine, in the order messages arrive.
	MessageHandler func(context.Context, *Message)

	// ConnectEvent contains the relevant metadata provided to the handler
	// when the client connects to the feed.
	ConnectEvent struct {
		// Reconnect is false only for the first connection.
		Reconnect bool

		// Topics are the filters subscribed on this connection.
		Topics []string
	}

	// ConnectEventHandler is a user-defined callback function used to respond
	// to connection notifications from the feed.
	ConnectEventHandler func(*ConnectEvent)

	// DisconnectEvent contains the relevant metadata provided to the handler
	// when the client disconnects from the feed.
	DisconnectEvent struct {
		// Error that caused the disconnection; nil when the client is stopped.
		Error error
	}

	// DisconnectEventHandler is a user-defined callback function used to
	// respond to disconnection notifications from the feed.
	DisconnectEventHandler func(*DisconnectEvent)

	// PahoClient is the part of *paho.Client used by the stream client. One
	// instance is created per connection attempt.
	PahoClient interface {
		Connect(
			ctx context.Context,
			packet *paho.Connect,
		) (*paho.Connack, error)

		Disconnect(
			packet *paho.Disconnect,
		) error

		Subscribe(
			ctx context.Context,
			packet *paho.Subscribe,
		) (*paho.Suback, error)

		Unsubscribe(
			ctx context.Context,
			packet *paho.Unsubscribe,
		) (*paho.Unsuback, error)

		AddOnPublishReceived(
			f func(paho.PublishReceived) (bool, error),
		) func()
	}
)

// NewClient constructs a new stream client. It does not connect until Start
// is called.
func NewClient(
	connectionProvider ConnectionProvider,
	opts ...ClientOption,
) *Client {
	client := &Client{
		done:                    make(chan struct{}),
		conn:                    internal.NewConnectionTracker[PahoClient](),
		messageHandlers:         internal.NewHandlers[MessageHandler](),
		connectEventHandlers:    internal.NewHandlers[ConnectEventHandler](),
		disconnectEventHandlers: internal.NewHandlers[DisconnectEventHandler](),
		connectionProvider:      connectionProvider,
	}
	client.ctx, client.cancel = context.WithCancelCause(context.Background())

	client.options.Apply(opts)

	if client.options.Topics == nil {
		client.options.Topics = []string{"#"}
	}
	client.topics = internal.NewTopicSet(client.options.Topics...)

	if client.options.TopicPrefix == "" {
		client.options.TopicPrefix = DefaultTopicPrefix
	}

	if client.options.ClientID == "" {
		client.options.ClientID = "sondehub-" + uuid.NewString()
	}

	if client.options.KeepAlive == 0 {
		client.options.KeepAlive = DefaultKeepAlive
	}

	if client.options.ConnectionTimeout == 0 {
		client.options.ConnectionTimeout = DefaultConnectionTimeout
	}

	if client.options.ConnectionRetry == nil {
		client.options.ConnectionRetry = &retry.ExponentialBackoff{
			Logger: client.options.Logger,
		}
	}

	if client.options.pahoClientFactory == nil {
		client.options.pahoClientFactory = func(
			config *paho.ClientConfig,
		) PahoClient {
			return paho.NewClient(*config)
		}
	}

	client.log.Logger = log.Wrap(client.options.Logger)

	return client
}

// ID returns the MQTT client ID for this client.
func (c *Client) ID() string {
	return c.options.ClientID
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(uint32(s))
}

// RegisterMessageHandler registers a message handler on this client. Returns
// a callback to remove the message handler.
func (c *Client) RegisterMessageHandler(handler MessageHandler) func() {
	return c.messageHandlers.Add(handler)
}

// RegisterConnectEventHandler registers a handler to a list of handlers that
// are called synchronously in registration order whenever the client
// finishes connecting and resubscribing. Returns a callback to remove the
// handler.
func (c *Client) RegisterConnectEventHandler(
	handler ConnectEventHandler,
) func() {
	return c.connectEventHandlers.Add(handler)
}

// RegisterDisconnectEventHandler registers a handler to a list of handlers
// that are called synchronously in registration order whenever the client
// detects a disconnection. Returns a callback to remove the handler.
func (c *Client) RegisterDisconnectEventHandler(
	handler DisconnectEventHandler,
) func() {
	return c.disconnectEventHandlers.Add(handler)
}
