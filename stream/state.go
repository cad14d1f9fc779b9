// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

// ConnectionState is the state of the connection to the feed.
type ConnectionState uint32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
