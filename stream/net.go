// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/eclipse/paho.golang/packets"
	"github.com/gorilla/websocket"
)

// ConnectionProvider is a function that returns a net.Conn connected to an
// MQTT server that is ready to read to and write from. It is called once per
// connection attempt. The returned net.Conn must be thread-safe (i.e.,
// concurrent Write calls must not interleave).
type ConnectionProvider func(context.Context) (net.Conn, error)

// TCPConnection is a ConnectionProvider that connects to an MQTT server over
// plain TCP. It is mostly useful for local brokers.
func TCPConnection(hostname string, port int) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(
			ctx,
			"tcp",
			net.JoinHostPort(hostname, fmt.Sprint(port)),
		)
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening TCP connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// WebSocketConnection is a ConnectionProvider that carries MQTT over a
// websocket. The URL is resolved again for every connection since the feed
// hands out presigned URLs that expire.
func WebSocketConnection(
	resolver URLResolver,
	dialer *websocket.Dialer,
) ConnectionProvider {
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 20 * time.Second,
		}
	}

	// Copy so the subprotocol can be forced without touching the caller's
	// dialer.
	d := *dialer
	d.Subprotocols = []string{"mqtt"}

	return func(ctx context.Context) (net.Conn, error) {
		u, err := resolver(ctx)
		if err != nil {
			return nil, &ConnectionError{
				message: "error resolving websocket URL",
				wrapped: err,
			}
		}

		header := http.Header{}
		header.Set("Host", u.Host)

		ws, res, err := d.DialContext(ctx, u.String(), header)
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening websocket connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(&wsConn{Conn: ws}), nil
	}
}

// wsConn presents a websocket as a byte stream. MQTT packets may span
// websocket frames, so reads continue across message boundaries.
type wsConn struct {
	*websocket.Conn
	r io.Reader
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			typ, r, err := c.NextReader()
			if err != nil {
				return 0, err
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if errors.Is(err, io.EOF) {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}
