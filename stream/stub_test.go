// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream_test

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/sondehub/sondehub-go/retry"
	"github.com/sondehub/sondehub-go/stream"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

// pahoStub records the subscriptions made on one connection.
type pahoStub struct {
	mu           sync.Mutex
	config       *paho.ClientConfig
	subs         map[string]int
	handlers     []func(paho.PublishReceived) (bool, error)
	disconnected bool
	fail         func(topic string) bool
	connect      func(context.Context) (*paho.Connack, error)
}

func (s *pahoStub) Connect(
	ctx context.Context,
	_ *paho.Connect,
) (*paho.Connack, error) {
	if s.connect != nil {
		return s.connect(ctx)
	}
	return &paho.Connack{}, nil
}

func (s *pahoStub) Disconnect(*paho.Disconnect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
	return nil
}

func (s *pahoStub) Subscribe(
	_ context.Context,
	packet *paho.Subscribe,
) (*paho.Suback, error) {
	topic := packet.Subscriptions[0].Topic
	if s.fail != nil && s.fail(topic) {
		return nil, errors.New("subscribe timed out")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[topic]++
	return &paho.Suback{Reasons: []byte{0}}, nil
}

func (s *pahoStub) Unsubscribe(
	_ context.Context,
	packet *paho.Unsubscribe,
) (*paho.Unsuback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, packet.Topics[0])
	return &paho.Unsuback{Reasons: []byte{0}}, nil
}

func (s *pahoStub) AddOnPublishReceived(
	f func(paho.PublishReceived) (bool, error),
) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, f)
	return func() {}
}

func (s *pahoStub) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	topics := make([]string, 0, len(s.subs))
	for t := range s.subs {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	return topics
}

func (s *pahoStub) SubscribeCount(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[topic]
}

func (s *pahoStub) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

func (s *pahoStub) Publish(topic, payload string) {
	s.mu.Lock()
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		_, _ = h(paho.PublishReceived{Packet: &paho.Publish{
			Topic:   topic,
			Payload: []byte(payload),
		}})
	}
}

func (s *pahoStub) Drop(err error) {
	s.config.OnClientError(err)
}

type harness struct {
	client      *stream.Client
	stubs       chan *pahoStub
	connects    chan *stream.ConnectEvent
	disconnects chan *stream.DisconnectEvent
	messages    chan *stream.Message
}

func newHarness(
	t *testing.T,
	fail func(string) bool,
	opts ...stream.ClientOption,
) *harness {
	h := &harness{
		stubs:       make(chan *pahoStub, 16),
		connects:    make(chan *stream.ConnectEvent, 16),
		disconnects: make(chan *stream.DisconnectEvent, 16),
		messages:    make(chan *stream.Message, 16),
	}

	provider := func(context.Context) (net.Conn, error) {
		a, b := net.Pipe()
		_ = b.Close()
		return a, nil
	}

	factory := func(config *paho.ClientConfig) stream.PahoClient {
		stub := &pahoStub{
			config: config,
			subs:   map[string]int{},
			fail:   fail,
		}
		h.stubs <- stub
		return stub
	}

	h.client = stream.NewClient(provider, append([]stream.ClientOption{
		stream.WithPahoClientFactory(factory),
		stream.WithConnectionRetry(&retry.Immediate{}),
	}, opts...)...)

	h.client.RegisterConnectEventHandler(func(e *stream.ConnectEvent) {
		h.connects <- e
	})
	h.client.RegisterDisconnectEventHandler(func(e *stream.DisconnectEvent) {
		h.disconnects <- e
	})
	h.client.RegisterMessageHandler(func(_ context.Context, m *stream.Message) {
		h.messages <- m
	})

	t.Cleanup(func() { _ = h.client.Stop() })
	return h
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		require.FailNow(t, "timed out waiting for event")
		var zero T
		return zero
	}
}

func requireNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		require.FailNow(t, "unexpected event", "%v", v)
	default:
	}
}
