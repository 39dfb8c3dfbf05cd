// Package lifecycle coordinates acquisition and release of long-lived resources.
// Startup hooks run concurrently and may fail; shutdown hooks run in reverse
// registration order so later resources release before the ones they use.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Coordinator manages startup and shutdown hooks for a process or a single run.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup    *errgroup.Group
	startupCtx context.Context

	mu       sync.Mutex
	shutdown []hook

	ready atomic.Bool
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	return &Coordinator{
		ctx:        ctx,
		cancel:     cancel,
		startup:    g,
		startupCtx: gctx,
	}
}

// Context returns the coordinator's context, cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers fn to run concurrently during startup. Its context is
// cancelled as soon as another startup hook fails.
func (c *Coordinator) OnStartup(fn func(ctx context.Context) error) {
	c.startup.Go(func() error {
		return fn(c.startupCtx)
	})
}

// OnShutdown registers a named release hook. The context carries the
// shutdown deadline.
func (c *Coordinator) OnShutdown(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, hook{name: name, fn: fn})
}

// Ready reports whether every startup hook has succeeded.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until all startup hooks finish and returns the
// first failure. Ready is set only on success.
func (c *Coordinator) WaitForStartup() error {
	if err := c.startup.Wait(); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	c.ready.Store(true)
	return nil
}

// Shutdown cancels the coordinator context and runs the shutdown hooks,
// newest first, within timeout. Hook failures are joined; hooks still
// running at the deadline are abandoned.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()
	c.ready.Store(false)

	c.mu.Lock()
	hooks := slices.Clone(c.shutdown)
	c.shutdown = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, h := range slices.Backward(hooks) {
			if err := h.fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
