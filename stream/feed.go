// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// DefaultFeedEndpoint is the endpoint that returns the live-feed websocket URL.
const DefaultFeedEndpoint = "https://api.v2.sondehub.org/sondes/websocket"

// URLResolver returns the URL to open the next connection to.
type URLResolver func(context.Context) (*url.URL, error)

// FeedResolver returns a URLResolver that asks the feed endpoint for a fresh
// URL on every call.
func FeedResolver(endpoint string, client *http.Client) URLResolver {
	return func(ctx context.Context) (*url.URL, error) {
		return ResolveFeedURL(ctx, client, endpoint)
	}
}

// ConstantURL returns a URLResolver for a fixed websocket URL.
func ConstantURL(u *url.URL) URLResolver {
	return func(context.Context) (*url.URL, error) {
		return u, nil
	}
}

// ResolveFeedURL performs one GET against the feed endpoint. The endpoint
// answers with the websocket URL, either as a JSON string or as plain text.
func ResolveFeedURL(
	ctx context.Context,
	client *http.Client,
	endpoint string,
) (*url.URL, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FeedResolutionError{Endpoint: endpoint, wrapped: err}
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, &FeedResolutionError{Endpoint: endpoint, wrapped: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &FeedResolutionError{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return nil, &FeedResolutionError{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
			wrapped:    err,
		}
	}

	raw := string(bytes.TrimSpace(body))
	var s string
	if json.Unmarshal(body, &s) == nil {
		raw = s
	}
	if raw == "" {
		return nil, &FeedResolutionError{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
			wrapped:    errors.New("empty response"),
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &FeedResolutionError{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
			wrapped:    err,
		}
	}

	switch u.Scheme {
	case "wss", "ws":
	case "http":
		u.Scheme = "ws"
	default:
		u.Scheme = "wss"
	}
	if u.Host == "" {
		return nil, &FeedResolutionError{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
			wrapped:    errors.New("resolved URL has no host"),
		}
	}
	return u, nil
}
