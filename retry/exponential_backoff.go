// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sondehub/sondehub-go/internal/wallclock"
)

// ExponentialBackoff doubles the wait after each failed attempt, from
// MinInterval up to MaxInterval. It is the stream client's default reconnect
// policy.
type ExponentialBackoff struct {
	// MaxAttempts caps the number of attempts; 0 means unlimited and 1
	// disables retries.
	MaxAttempts uint64

	// MinInterval is the first wait (before jitter). Defaults to 1/8s.
	MinInterval time.Duration

	// MaxInterval caps the wait (before jitter). Defaults to 30s.
	MaxInterval time.Duration

	// Timeout bounds the whole sequence of attempts.
	Timeout time.Duration

	// NoJitter disables the ±5% spread applied to each wait.
	NoJitter bool

	// Logger receives attempt and result logs.
	Logger *slog.Logger
}

const (
	defaultMinInterval = time.Second / 8
	defaultMaxInterval = 30 * time.Second
)

// Start initiates the retry executions.
func (e *ExponentialBackoff) Start(
	ctx context.Context,
	name string,
	task Task,
) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = wallclock.Instance.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	return attempts(ctx, name, e.Logger, task, e.interval)
}

// interval is the wait after the given failed attempt.
func (e *ExponentialBackoff) interval(attempt uint64) (time.Duration, bool) {
	if attempt == e.MaxAttempts {
		return 0, false
	}

	lo := e.MinInterval
	if lo <= 0 {
		lo = defaultMinInterval
	}
	hi := max(e.MaxInterval, lo)
	if e.MaxInterval <= 0 {
		hi = max(defaultMaxInterval, lo)
	}

	// Clamp the exponent so the wait never exceeds hi.
	factor := math.Pow(2, min(
		float64(attempt-1),
		math.Log2(float64(hi)/float64(lo)),
	))
	if !e.NoJitter {
		// #nosec G404
		factor *= .95 + .1*rand.Float64()
	}
	return time.Duration(factor * float64(lo)), true
}
