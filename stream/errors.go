// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"fmt"
	"log/slog"
)

// ClientState indicates the lifecycle state of the client.
type ClientState uint32

const (
	// The client has not yet been started.
	NotStarted ClientState = iota

	// The client has been started and has not yet been stopped.
	Started

	// The client has been stopped.
	ShutDown
)

// ClientStateError is returned when the operation cannot proceed due to the
// lifecycle state of the client.
type ClientStateError struct {
	State ClientState
}

func (e *ClientStateError) Error() string {
	switch e.State {
	case NotStarted:
		return "the stream client has not yet been started"
	case Started:
		return "the stream client has already been started"
	case ShutDown:
		return "the stream client has been shut down"
	default:
		return ""
	}
}

// ConnectionError indicates a failure opening or keeping the network
// connection to the feed. It may wrap an underlying error.
type ConnectionError struct {
	wrapped error
	message string
}

func (e *ConnectionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *ConnectionError) Unwrap() error {
	return e.wrapped
}

// ConnackError indicates the server refused the connection.
type ConnackError struct {
	ReasonCode byte
}

func (e *ConnackError) Error() string {
	return fmt.Sprintf(
		"received CONNACK packet with error reason code %x",
		e.ReasonCode,
	)
}

// DisconnectError indicates that the server sent a DISCONNECT packet. The
// client reconnects after logging it.
type DisconnectError struct {
	ReasonCode byte
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf(
		"received DISCONNECT packet with reason code %x",
		e.ReasonCode,
	)
}

// SubscribeError indicates a SUBSCRIBE or UNSUBSCRIBE for a topic filter
// failed, either on the network or with a failure reason code. Any such
// failure forces a reconnect.
type SubscribeError struct {
	Topic       string
	Unsubscribe bool
	ReasonCode  byte
	wrapped     error
}

func (e *SubscribeError) Error() string {
	op := "subscribe"
	if e.Unsubscribe {
		op = "unsubscribe"
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s to %q failed: %v", op, e.Topic, e.wrapped)
	}
	return fmt.Sprintf(
		"%s to %q failed with reason code %x",
		op,
		e.Topic,
		e.ReasonCode,
	)
}

func (e *SubscribeError) Unwrap() error {
	return e.wrapped
}

func (e *SubscribeError) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("topic", e.Topic)}
	if e.ReasonCode != 0 {
		attrs = append(attrs, slog.Int("reason_code", int(e.ReasonCode)))
	}
	return attrs
}

// FeedResolutionError indicates the feed endpoint did not return a usable
// websocket URL.
type FeedResolutionError struct {
	Endpoint   string
	StatusCode int
	wrapped    error
}

func (e *FeedResolutionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf(
			"could not resolve feed URL from %s: %v",
			e.Endpoint,
			e.wrapped,
		)
	}
	return fmt.Sprintf(
		"could not resolve feed URL from %s: HTTP status %d",
		e.Endpoint,
		e.StatusCode,
	)
}

func (e *FeedResolutionError) Unwrap() error {
	return e.wrapped
}

func (e *FeedResolutionError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("endpoint", e.Endpoint),
		slog.Int("status_code", e.StatusCode),
	}
}

// InvalidArgumentError indicates that the user has provided an invalid value
// for an option. It may wrap an underlying error.
type InvalidArgumentError struct {
	wrapped error
	message string
}

func (e *InvalidArgumentError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.wrapped
}
