// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"golang.org/x/sync/errgroup"
)

// ProductionScheduler is the default [Scheduler]: a single dispatcher
// goroutine draining a buffered wake channel of thunks, FIFO at equal
// priority. Delayed thunks are posted through time.AfterFunc, which
// re-enters the same wake channel rather than running the thunk on the
// timer's own goroutine — this is what keeps "single cooperative
// thread of control" true even though the Go runtime backing it is
// physically multi-threaded.
//
// Grounded on recera-vango's Scheduler: a buffered globalWake channel,
// an atomic running flag, and a loop that batches everything currently
// queued before yielding back to the channel receive.
type ProductionScheduler struct {
	wake    chan func()
	running atomic.Bool
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc

	dispatchGoid atomic.Int64
}

// NewProductionScheduler creates a scheduler; call Start to begin
// dispatching.
func NewProductionScheduler() *ProductionScheduler {
	return &ProductionScheduler{wake: make(chan func(), 1024)}
}

// Start begins the dispatcher goroutine. Start is idempotent.
func (s *ProductionScheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx, s.cancel = ctx, cancel
	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		s.dispatchGoid.Store(goid.Get())
		debugLogf("production scheduler loop started on goroutine %d", goid.Get())
		s.loop(gctx)
		return nil
	})
}

// Stop signals the dispatcher to exit and waits for it, or for ctx to
// be cancelled first.
func (s *ProductionScheduler) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ProductionScheduler) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.wake:
			s.runOne(fn)
		drain:
			for {
				select {
				case fn := <-s.wake:
					s.runOne(fn)
				default:
					break drain
				}
			}
		}
	}
}

func (s *ProductionScheduler) runOne(fn func()) {
	if debugLog != nil {
		if id := goid.Get(); id != s.dispatchGoid.Load() {
			panic("weft: thunk dispatched off the scheduler's single cooperative goroutine")
		}
	}
	defer func() {
		if r := recover(); r != nil {
			debugLogf("production scheduler: recovered panic from scheduled thunk: %v", r)
		}
	}()
	fn()
}

// Asap implements [Scheduler].
func (s *ProductionScheduler) Asap(fn func()) *CancelHandle {
	h := newCancelHandle()
	select {
	case s.wake <- fn:
	default:
		// Wake channel momentarily full: spin off a goroutine that
		// blocks on the send so Asap itself never blocks its caller.
		go func() {
			select {
			case s.wake <- fn:
			case <-h.cancelledCh():
			}
		}()
	}
	return h
}

// Delay implements [Scheduler]. The timer fires on its own goroutine
// but only ever posts fn back onto the shared wake channel — it never
// runs fn directly, preserving the single-dispatcher invariant.
func (s *ProductionScheduler) Delay(d time.Duration, fn func()) *CancelHandle {
	h := newCancelHandle()
	timer := time.AfterFunc(d, func() {
		select {
		case s.wake <- fn:
		case <-h.cancelledCh():
		}
	})
	h.cancelFn = func() { timer.Stop() }
	return h
}

// cancelledCh lazily exposes a channel closed when Cancel fires, for
// select-based early-exit in goroutines racing a cancellation.
func (h *CancelHandle) cancelledCh() <-chan struct{} {
	h.onCancelMu.Lock()
	defer h.onCancelMu.Unlock()
	if h.cancelledChan == nil {
		h.cancelledChan = make(chan struct{})
		if h.cancelled {
			close(h.cancelledChan)
		}
	}
	return h.cancelledChan
}
