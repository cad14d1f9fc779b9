// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Immediate retries a task with no delay between attempts. It is the policy
// behind the telemetry uploader, where a 5xx response is retried straight
// away, and lets tests drive the stream client's reconnect loop without
// timing dependencies.
type Immediate struct {
	// MaxAttempts sets the maximum number of attempts. The default value of 0
	// indicates unlimited attempts.
	MaxAttempts uint64

	// Logger provides a logger which will be used to log retry attempts and
	// results.
	Logger *slog.Logger
}

// Start initiates the retry executions.
func (i *Immediate) Start(ctx context.Context, name string, task Task) error {
	return attempts(ctx, name, i.Logger, task, func(
		attempt uint64,
	) (time.Duration, bool) {
		return 0, attempt != i.MaxAttempts
	})
}
