// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"log/slog"

	"github.com/sondehub/sondehub-go/internal/options"
	"github.com/sondehub/sondehub-go/metrics"
)

type (
	// FetcherOption represents a single option for the fetcher.
	FetcherOption interface{ fetcher(*FetcherOptions) }

	// FetcherOptions are the resolved options for the fetcher.
	FetcherOptions struct {
		Bucket  string
		Workers int
		Logger  *slog.Logger
		Metrics *metrics.Metrics
	}

	// WithBucket sets the archive bucket. Defaults to "sondehub-history".
	WithBucket string

	// WithWorkers sets the maximum number of concurrent downloads. Defaults
	// to 50.
	WithWorkers int

	withLogger  struct{ *slog.Logger }
	withMetrics struct{ *metrics.Metrics }
)

const (
	DefaultBucket  = "sondehub-history"
	DefaultWorkers = 50
)

// Apply resolves the provided list of options.
func (o *FetcherOptions) Apply(
	opts []FetcherOption,
	rest ...FetcherOption,
) {
	for opt := range options.Apply[FetcherOption](opts, rest...) {
		opt.fetcher(o)
	}
}

func (o *FetcherOptions) fetcher(opt *FetcherOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithBucket) fetcher(opt *FetcherOptions) {
	opt.Bucket = string(o)
}

func (o WithWorkers) fetcher(opt *FetcherOptions) {
	opt.Workers = int(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return withLogger{logger}
}

func (o withLogger) fetcher(opt *FetcherOptions) {
	opt.Logger = o.Logger
}

// WithMetrics records fetcher metrics in the provided collector.
func WithMetrics(m *metrics.Metrics) FetcherOption {
	return withMetrics{m}
}

func (o withMetrics) fetcher(opt *FetcherOptions) {
	opt.Metrics = o.Metrics
}
