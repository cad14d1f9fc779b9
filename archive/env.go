// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"context"
	"strconv"

	"github.com/sondehub/sondehub-go/internal/envconfig"
)

// FetcherConfigFromEnv parses the fetcher configuration from well-known
// environment variables and returns the S3 region alongside it.
func FetcherConfigFromEnv() (region string, opts *FetcherOptions, err error) {
	opts = &FetcherOptions{}
	region = DefaultRegion

	for key, val := range envconfig.Vars("SONDEHUB_ARCHIVE_") {
		switch key {
		case "SONDEHUB_ARCHIVE_BUCKET":
			opts.Bucket = val

		case "SONDEHUB_ARCHIVE_REGION":
			region = val

		case "SONDEHUB_ARCHIVE_WORKERS":
			workers, err := strconv.Atoi(val)
			if err != nil || workers <= 0 {
				return "", nil, &InvalidArgumentError{
					message: "could not parse archive worker count",
					wrapped: err,
				}
			}
			opts.Workers = workers
		}
	}
	return region, opts, nil
}

// NewFetcherFromEnv constructs a fetcher over the public S3 archive using
// environment configuration. Explicit options take precedence.
func NewFetcherFromEnv(
	ctx context.Context,
	opts ...FetcherOption,
) (*Fetcher, error) {
	region, envOpts, err := FetcherConfigFromEnv()
	if err != nil {
		return nil, err
	}

	store, err := NewS3Store(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewFetcher(store, append([]FetcherOption{envOpts}, opts...)...), nil
}
