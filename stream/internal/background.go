// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import "context"

// Background marks the lifetime of one feed connection. Closing it cancels
// every context derived through With, with the cause it was created with.
type Background struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	cause  error
}

// NewBackground returns an open Background whose derived contexts are
// cancelled with cause once it closes.
func NewBackground(cause error) *Background {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Background{ctx: ctx, cancel: cancel, cause: cause}
}

// With derives a context that ends when either the parent is done or the
// connection goes down.
func (b *Background) With(
	parent context.Context,
) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	stop := context.AfterFunc(b.ctx, func() { cancel(b.cause) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

// Close marks the connection as down. It is safe to call more than once.
func (b *Background) Close() {
	b.cancel(b.cause)
}

// Done is closed once the connection is down.
func (b *Background) Done() <-chan struct{} {
	return b.ctx.Done()
}
