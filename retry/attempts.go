// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/sondehub/sondehub-go/internal/log"
	"github.com/sondehub/sondehub-go/internal/wallclock"
)

// schedule reports the wait before the attempt that follows the given one,
// or false once the attempt budget is spent.
type schedule func(attempt uint64) (time.Duration, bool)

// attempts runs task until it succeeds, reports a non-retryable error, the
// schedule runs out, or ctx is done. Every policy in this package shares it
// and differs only in its schedule.
func attempts(
	ctx context.Context,
	name string,
	l *slog.Logger,
	task Task,
	next schedule,
) error {
	lg := logger{log.Wrap(l)}

	for attempt := uint64(1); ; attempt++ {
		lg.attempt(ctx, name, attempt)
		retry, err := task(ctx)
		if err == nil {
			lg.complete(ctx, name, attempt, nil)
			return nil
		}

		wait, ok := next(attempt)
		if !retry || !ok {
			lg.complete(ctx, name, attempt, err)
			return err
		}
		if ctx.Err() != nil {
			lg.complete(ctx, name, attempt, ctx.Err())
			return ctx.Err()
		}
		if wait <= 0 {
			continue
		}

		select {
		case <-wallclock.Instance.After(wait):
		case <-ctx.Done():
			lg.complete(ctx, name, attempt, ctx.Err())
			return ctx.Err()
		}
	}
}
