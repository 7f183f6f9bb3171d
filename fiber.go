// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"sync"
	"sync/atomic"
)

var fiberIDs atomic.Uint64

// Fiber is a lightweight, cooperatively-scheduled thread of control
// running a single Eff tree to completion. Fibers are created by
// [Fork] (or by [UnsafeRun]/[UnsafeRunSync] for the root
// computation); they are joined with [Join] or observed without
// propagating their outcome with [AwaitFiber].
//
// A Fiber's id is a process-unique, monotonically increasing integer,
// intended for diagnostics and debug-log correlation — not a [Queue]
// style opaque handle, so it stays a plain integer rather than a
// google/uuid.UUID.
type Fiber struct {
	id       uint64
	rt       *Runtime
	parent   *Fiber
	status   atomic.Int32
	pending  atomic.Pointer[CancelHandle]
	mu       sync.Mutex
	waiters  []func()
	exitOK   bool
	exitVal  any
}

// ID returns the fiber's unique diagnostic identifier.
func (fb *Fiber) ID() uint64 { return fb.id }

// Parent returns the fiber that forked this one, or nil for a root
// fiber started directly by the runtime.
func (fb *Fiber) Parent() *Fiber { return fb.parent }

func newFiber(rt *Runtime, parent *Fiber) *Fiber {
	fb := &Fiber{id: fiberIDs.Add(1), rt: rt, parent: parent}
	fb.status.Store(int32(statusPending))
	return fb
}

func (fb *Fiber) aborted() bool {
	return fiberStatus(fb.status.Load()) == statusAborted
}

// Abort cooperatively interrupts the fiber: it marks it Aborted,
// invokes its outstanding cancellation handle (if it is suspended in
// Async), and notifies anyone waiting on it. Abort is idempotent —
// aborting an already-completed or already-aborted fiber is a no-op.
func (fb *Fiber) Abort() {
	if !fb.status.CompareAndSwap(int32(statusPending), int32(statusAborted)) {
		return
	}
	if c := fb.pending.Load(); c != nil {
		c.Cancel()
	}
	debugLogf("fiber %d aborted", fb.id)
	fb.notifyWaiters()
}

func (fb *Fiber) setPending(c *CancelHandle) { fb.pending.Store(c) }
func (fb *Fiber) clearPending()              { fb.pending.Store(nil) }

func (fb *Fiber) complete(ok bool, v any) {
	if !fb.status.CompareAndSwap(int32(statusPending), int32(statusCompleted)) {
		return
	}
	fb.mu.Lock()
	fb.exitOK, fb.exitVal = ok, v
	fb.mu.Unlock()
	debugLogf("fiber %d completed ok=%v", fb.id, ok)
	fb.notifyWaiters()
}

// deliverInterrupt unwinds the continuation chain without invoking any
// recoverCont — interruption is not a recoverable error, per the
// semantics of [Catch]. envCont frames are skipped like the others:
// the environment travels with each action rather than living on the
// fiber, so an aborted fiber has no environment left to restore.
func (fb *Fiber) deliverInterrupt(k cont) {
	for {
		if k == nil {
			fb.completeAborted()
			return
		}
		if ec, ok := k.(*envCont); ok {
			k = ec.next
			continue
		}
		k = nextCont(k)
	}
}

// nextCont returns the next continuation in the chain for any cont
// shape, used only while unwinding on interruption (no data is passed
// through: an aborted fiber never delivers a value upward).
func nextCont(k cont) cont {
	switch f := k.(type) {
	case *applyMapCont:
		return f.next
	case *applyChainCont:
		return f.next
	case *recoverCont:
		return f.next
	case *envCont:
		return f.next
	default:
		return nil
	}
}

func (fb *Fiber) completeAborted() {
	fb.mu.Lock()
	fb.mu.Unlock()
	fb.notifyWaiters()
}

func (fb *Fiber) notifyWaiters() {
	fb.mu.Lock()
	ws := fb.waiters
	fb.waiters = nil
	fb.mu.Unlock()
	for _, w := range ws {
		w()
	}
}

// onExit registers fn to run once the fiber leaves Pending status,
// invoking it immediately if the fiber has already exited.
func (fb *Fiber) onExit(fn func()) {
	fb.mu.Lock()
	if fiberStatus(fb.status.Load()) != statusPending {
		fb.mu.Unlock()
		fn()
		return
	}
	fb.waiters = append(fb.waiters, fn)
	fb.mu.Unlock()
}

// AwaitFiber observes f without propagating its outcome: it resolves
// to None if f was aborted, or Some(exit) with f's Either exit value
// otherwise. AwaitFiber never fails and never blocks the scheduler
// thread — it suspends only the calling fiber. (Named distinctly from
// the [Await] one-shot-latch type, which is an unrelated primitive.)
func AwaitFiber[E, A, R any](f *Fiber) Eff[E, Option[Either[E, A]], R] {
	return wrap[E, Option[Either[E, A]], R](&asyncNode{
		register: func(resume func(ok bool, v any), cancel *CancelHandle) {
			f.onExit(func() {
				st := fiberStatus(f.status.Load())
				if st == statusAborted {
					resume(true, None[Either[E, A]]())
					return
				}
				f.mu.Lock()
				ok, v := f.exitOK, f.exitVal
				f.mu.Unlock()
				var either Either[E, A]
				if ok {
					either = Right[E, A](v.(A))
				} else {
					either = Left[E, A](v.(E))
				}
				resume(true, Some(either))
			})
		},
	})
}

// Join awaits f and propagates its outcome into the calling fiber: a
// Right exit resumes with its value, a Left exit fails the caller with
// the same error, and an aborted f interrupts the calling fiber too
// (join is await followed by propagation).
func Join[E, A, R any](f *Fiber) Eff[E, A, R] {
	return Chain(AwaitFiber[E, A, R](f), func(opt Option[Either[E, A]]) Eff[E, A, R] {
		either, ok := opt.Get()
		if !ok {
			return wrap[E, A, R](interruptSingleton)
		}
		return MatchEither(either, Reject[E, A, R], Const[E, A, R])
	})
}
