// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"sync"
	"time"
)

// Scheduler is the host contract a [Runtime] is bound to: schedule a
// thunk to run as soon as possible, or after a delay, each returning a
// handle the caller can cancel. Implementations must guarantee FIFO
// ordering among thunks scheduled via the same method at the same
// logical time, and must never run two thunks concurrently — the
// whole point of the contract is a single cooperative thread of
// control, however many OS threads the implementation itself uses
// internally.
type Scheduler interface {
	// Asap schedules fn to run as soon as the scheduler is free.
	Asap(fn func()) *CancelHandle
	// Delay schedules fn to run after d has elapsed.
	Delay(d time.Duration, fn func()) *CancelHandle
}

// CancelHandle is an idempotent, one-shot cancellation token returned
// by a [Scheduler]. Calling Cancel more than once, or concurrently, is
// safe and runs the underlying cancellation exactly once — the same
// affine-resume discipline the teacher's Affine type enforces for
// continuations, applied here to cancellation instead.
type CancelHandle struct {
	once       sync.Once
	cancelFn   func()
	onCancelMu sync.Mutex
	onCancelFn func()
	// cancelled and cancelledChan both track firedness on purpose:
	// cancelled is the source of truth Cancel/onCancel check under
	// onCancelMu without allocating; cancelledChan is a select-able
	// view of the same fact, lazily allocated by cancelledCh() only
	// for the production scheduler's timer-vs-cancel race (it has
	// nothing to poll). Most handles never call cancelledCh and so
	// never pay for the channel.
	cancelled     bool
	cancelledChan chan struct{}
}

func newCancelHandle() *CancelHandle {
	return &CancelHandle{}
}

func newCancelHandleFn(fn func()) *CancelHandle {
	return &CancelHandle{cancelFn: fn}
}

// Cancel invokes the underlying cancellation exactly once.
func (h *CancelHandle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.onCancelMu.Lock()
		h.cancelled = true
		fn := h.onCancelFn
		if h.cancelledChan != nil {
			close(h.cancelledChan)
		}
		h.onCancelMu.Unlock()
		if fn != nil {
			fn()
		}
		if h.cancelFn != nil {
			h.cancelFn()
		}
	})
}

// onCancel registers fn to run when Cancel fires, or immediately if
// Cancel already fired. Used by Async registrants (Delay, Managed)
// that need their own teardown — stopping a timer, aborting a worker
// fiber — when the enclosing fiber aborts mid-suspension.
func (h *CancelHandle) onCancel(fn func()) {
	h.onCancelMu.Lock()
	if h.cancelled {
		h.onCancelMu.Unlock()
		fn()
		return
	}
	h.onCancelFn = fn
	h.onCancelMu.Unlock()
}
