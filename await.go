// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import "sync"

// Await is a single-assignment, one-shot latch: Set takes effect at
// most once and fans its value out to every fiber currently suspended
// in Get plus every fiber that calls Get afterward. It is the minimal
// building block [Managed] and [Queue] are built from.
//
// Grounded on the teacher's affine.go Affine/Once one-shot-resume
// discipline, generalized from "resume one captured continuation
// once" to "assign one cell once and wake any number of waiters".
type Await[E, A any] struct {
	mu      sync.Mutex
	set     bool
	value   Either[E, A]
	waiters []func(Either[E, A])
}

// Of creates an unset Await cell.
func Of[E, A any]() *Await[E, A] {
	return &Await[E, A]{}
}

// Set assigns the cell's value, waking every waiter. Only the first
// call has any effect — Set is idempotent, matching the affine
// (resume-at-most-once) discipline [Await] is built on; the returned
// Eff never fails and resolves to whether this call actually set it.
func (a *Await[E, A]) Set(v Either[E, A]) Eff[Never, bool, Unit] {
	return Try[Never, bool, Unit](func() bool { return a.setDirect(v) })
}

// setDirect performs Set's mutation outside the Eff algebra, for
// internal primitives (Once, Managed, Queue) that need to assign an
// Await's cell from a plain Go callback — e.g. a forked fiber's onExit
// hook — rather than from inside an interpreted effect.
func (a *Await[E, A]) setDirect(v Either[E, A]) bool {
	a.mu.Lock()
	if a.set {
		a.mu.Unlock()
		return false
	}
	a.set = true
	a.value = v
	ws := a.waiters
	a.waiters = nil
	a.mu.Unlock()
	for _, w := range ws {
		w(v)
	}
	return true
}

// Get suspends the calling fiber until the cell is set, then resolves
// to its value. Fixed to environment Unit for the common case; use
// [AwaitGet] when a different environment type is required (Await
// itself never reads or needs an environment, so this is purely a type-
// level convenience).
func (a *Await[E, A]) Get() Eff[E, A, Unit] {
	return AwaitGet[E, A, Unit](a)
}

// AwaitGet is [Await.Get] generalized over the environment type R, for
// call sites (raceWith, Managed, Queue) that build it into a larger Eff
// requiring an environment other than Unit.
func AwaitGet[E, A, R any](a *Await[E, A]) Eff[E, A, R] {
	return Chain(awaitGetEither[E, A, R](a), func(e Either[E, A]) Eff[E, A, R] {
		if v, ok := e.GetRight(); ok {
			return Const[E, A, R](v)
		}
		err, _ := e.GetLeft()
		return Reject[E, A, R](err)
	})
}

func awaitGetEither[E, A, R any](a *Await[E, A]) Eff[Never, Either[E, A], R] {
	return Async[Never, Either[E, A], R](func(resume func(ok bool, v any), cancel *CancelHandle) {
		a.mu.Lock()
		if a.set {
			v := a.value
			a.mu.Unlock()
			resume(true, v)
			return
		}
		waiter := func(v Either[E, A]) { resume(true, v) }
		a.waiters = append(a.waiters, waiter)
		a.mu.Unlock()
	})
}
