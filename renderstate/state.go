// Package renderstate carries the cooperative cancellation flag polled by the
// reference generator and the table builder.
package renderstate

import (
	"context"
	"sync/atomic"
)

// State is polled periodically by long-running builds. Once InterruptRequested
// returns true the build returns errs.ErrTerminated at its next check.
type State interface {
	InterruptRequested() bool
}

// Flag is a State backed by an atomic boolean. The zero value is not interrupted.
type Flag struct {
	interrupted atomic.Bool
}

var _ State = (*Flag)(nil)

// InterruptRequested reports whether Interrupt has been called.
func (f *Flag) InterruptRequested() bool {
	return f.interrupted.Load()
}

// Interrupt asks the build that polls f to stop.
func (f *Flag) Interrupt() {
	f.interrupted.Store(true)
}

type never struct{}

func (never) InterruptRequested() bool { return false }

// Never returns a State that is never interrupted.
func Never() State {
	return never{}
}

type ctxState struct {
	ctx context.Context
}

func (s ctxState) InterruptRequested() bool {
	return s.ctx.Err() != nil
}

// FromContext returns a State that is interrupted once ctx is done.
func FromContext(ctx context.Context) State {
	return ctxState{ctx: ctx}
}

// After returns a State that reports an interrupt after it has been polled n times.
// It is meant for tests that need a build to stop part-way.
func After(n int64) State {
	s := &countdown{}
	s.left.Store(n)

	return s
}

type countdown struct {
	left atomic.Int64
}

func (c *countdown) InterruptRequested() bool {
	return c.left.Add(-1) < 0
}
