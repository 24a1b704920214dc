// Package stopper provides the cancellable-context-plus-goroutine-group
// pattern the teacher's util/stopper package is used for in
// stdpool/my.go (ctx.Go(...), ctx.Stopping()). The upstream package
// itself isn't part of this repository's dependency surface, so this
// is a minimal reimplementation of the same shape built on
// context+sync/errgroup, used the same way: one Context per process,
// workers registered with Go, a single Stop that cancels and waits.
package stopper

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Context decorates a context.Context with a goroutine group so that
// every worker launched through Go is waited on by Stop.
type Context struct {
	context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a root Context. parent is usually context.Background().
func New(parent context.Context) *Context {
	ctx, cancel := context.WithCancel(parent)
	group, groupCtx := errgroup.WithContext(ctx)
	return &Context{Context: groupCtx, cancel: cancel, group: group}
}

// Go launches fn in its own goroutine, tracked so that Stop waits for
// it to return.
func (c *Context) Go(fn func() error) {
	c.group.Go(fn)
}

// Stopping returns a channel closed once Stop has been called, for
// goroutines that need to notice cancellation without taking a
// dependency on context.Context directly.
func (c *Context) Stopping() <-chan struct{} {
	return c.Context.Done()
}

// Stop cancels the context and blocks until every goroutine launched
// via Go has returned, returning the first non-nil error any of them
// reported.
func (c *Context) Stop() error {
	c.cancel()
	return c.group.Wait()
}
