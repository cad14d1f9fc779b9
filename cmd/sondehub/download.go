// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"log/slog"

	"github.com/sondehub/sondehub-go/archive"
	"github.com/sondehub/sondehub-go/metrics"
)

func runDownload(
	ctx context.Context,
	cfg *config,
	log *slog.Logger,
	m *metrics.Metrics,
	out *output,
) error {
	opts := []archive.FetcherOption{
		archive.WithLogger(log),
		archive.WithMetrics(m),
	}
	if cfg.workers > 0 {
		opts = append(opts, archive.WithWorkers(cfg.workers))
	}

	fetcher, err := archive.NewFetcherFromEnv(ctx, opts...)
	if err != nil {
		return err
	}

	records, err := fetcher.Fetch(ctx, archive.Query{
		Serial:     cfg.download,
		DatePrefix: cfg.date,
	})
	if err != nil {
		return err
	}

	for _, r := range records {
		if err := out.Encode(r); err != nil {
			return err
		}
	}
	log.Info("download complete", "records", len(records))
	return nil
}
