// Package runner runs the long-lived pieces of a triage session side by side
package runner

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/triagekit/triage/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// SafeGroup wraps errgroup.Group, turning a panicking goroutine into an
// error for Wait instead of a crash.
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a group whose context is cancelled when any member
// returns an error.
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group:  g,
		logger: log,
	}, ctx
}

// Go runs fn in a new goroutine
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()
		return fn()
	})
}

// SetLimit caps the number of concurrently running members
func (sg *SafeGroup) SetLimit(n int) {
	sg.group.SetLimit(n)
}

// Wait blocks until every member returns and reports the first error
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}
