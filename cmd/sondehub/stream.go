// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"log/slog"

	"github.com/sondehub/sondehub-go/metrics"
	"github.com/sondehub/sondehub-go/stream"
)

func runStream(
	ctx context.Context,
	cfg *config,
	log *slog.Logger,
	m *metrics.Metrics,
	out *output,
) error {
	client, err := stream.NewClientFromEnv(
		stream.WithTopics(cfg.serials),
		stream.WithRaw(cfg.raw),
		stream.WithLogger(log),
		stream.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	client.RegisterConnectEventHandler(func(e *stream.ConnectEvent) {
		log.Info("connected to live feed",
			"reconnect", e.Reconnect,
			"topics", e.Topics,
		)
	})
	client.RegisterDisconnectEventHandler(func(e *stream.DisconnectEvent) {
		if e.Error != nil {
			log.Warn("disconnected from live feed", "error", e.Error)
		}
	})
	client.RegisterMessageHandler(func(_ context.Context, msg *stream.Message) {
		var err error
		if cfg.raw {
			err = out.Line(msg.Payload)
		} else {
			err = out.Encode(msg.Document)
		}
		if err != nil {
			log.Error("could not write message", "error", err)
		}
	})

	if err := client.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("stopping")
	return client.Stop()
}
