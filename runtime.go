// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"context"
	"errors"
)

// Runtime binds a [Scheduler] and starts root fibers against it.
// UnsafeRun and UnsafeRunSync are the two escape hatches from the pure
// Eff world into actually-running code — "unsafe" in the sense the
// teacher's Run/RunWith use it: nothing about constructing an Eff runs
// anything, only these do.
type Runtime struct {
	scheduler Scheduler
	prod      *ProductionScheduler
}

// NewRuntime creates a Runtime bound to the given scheduler.
func NewRuntime(s Scheduler) *Runtime {
	return &Runtime{scheduler: s}
}

// NewProductionRuntime creates a Runtime backed by a fresh, started
// [ProductionScheduler] — the batteries-included default for running
// real (non-test) programs.
func NewProductionRuntime() *Runtime {
	p := NewProductionScheduler()
	p.Start()
	return &Runtime{scheduler: p, prod: p}
}

// WithScheduler returns a copy of rt bound to a different scheduler.
// The returned Runtime never owns a production scheduler, even if rt
// did: Close on it is always a no-op, since s is caller-owned and rt's
// original scheduler (if any) is still reachable through rt itself and
// must be closed there instead.
func (rt *Runtime) WithScheduler(s Scheduler) *Runtime {
	return &Runtime{scheduler: s}
}

// Close drains the runtime's scheduler if it owns a production
// scheduler, waiting for the dispatcher goroutine to exit cleanly. It
// is a no-op for runtimes built with [NewRuntime] against a caller-
// owned scheduler.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.prod == nil {
		return nil
	}
	return rt.prod.Stop(ctx)
}

// UnsafeRun starts eff as a root fiber and returns its handle
// immediately, without waiting for completion. onExit, if non-nil, is
// invoked exactly once — on the scheduler's own goroutine(s) — when
// the fiber reaches a genuine Either outcome. onExit is not invoked if
// the fiber is aborted before completing; observe that case with
// [AwaitFiber] on the returned Fiber instead.
func UnsafeRun[E, A any](rt *Runtime, eff Eff[E, A, Unit], onExit func(Either[E, A])) *Fiber {
	fb := newFiber(rt, nil)
	if onExit != nil {
		fb.onExit(func() {
			if fiberStatus(fb.status.Load()) != statusCompleted {
				return
			}
			fb.mu.Lock()
			ok, v := fb.exitOK, fb.exitVal
			fb.mu.Unlock()
			if ok {
				onExit(Right[E, A](v.(A)))
			} else {
				onExit(Left[E, A](v.(E)))
			}
		})
	}
	n := eff.n
	rt.scheduler.Asap(func() { fb.run(reduceStep(n, any(Unit{}), nil)) })
	return fb
}

// errNotCompleted is returned by UnsafeRunSync when driving the
// virtual scheduler to quiescence leaves the root fiber without an
// Either outcome: still pending (e.g. an Await on a fiber that never
// completes, or a bare NeverEff) or aborted.
var errNotCompleted = errors.New("weft: computation did not complete")

// UnsafeRunSync drives a fresh [VirtualScheduler] synchronously to
// completion and returns the root fiber's Either outcome. It is meant
// for tests: deterministic, single-goroutine, no real time involved.
func UnsafeRunSync[E, A any](eff Eff[E, A, Unit]) (Either[E, A], error) {
	vs := NewVirtualScheduler()
	rt := NewRuntime(vs)
	var result Either[E, A]
	done := false
	fb := UnsafeRun(rt, eff, func(e Either[E, A]) {
		result = e
		done = true
	})
	vs.Run()
	if !done {
		if fb.aborted() {
			var zero A
			return Right[E, A](zero), errNotCompleted
		}
		return result, errNotCompleted
	}
	return result, nil
}

// spawnChild creates and starts a new fiber running n with the given
// snapshot environment, parented to parent.
func (rt *Runtime) spawnChild(parent *Fiber, n node, env any) *Fiber {
	child := newFiber(rt, parent)
	debugLogf("fiber %d forked from %d", child.id, parent.id)
	rt.scheduler.Asap(func() { child.run(reduceStep(n, env, nil)) })
	return child
}
