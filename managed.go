// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

// Managed<E,A,R> is a scoped acquire/release bracket: grounded on the
// teacher's resource.go Bracket (acquire → use → release, release
// always runs), generalized to a reusable description rather than a
// single acquire-and-run call, and extended with a release that is
// guaranteed to run exactly once even if the fiber running Use is
// itself aborted mid-use (spec.md §4.5).
//
// Internally, acquire produces an acquiredResource pairing the value
// with its already-closed-over release effect, rather than keeping
// acquire and release as two independently-reusable pieces — this is
// what lets Map/Chain compose release in LIFO order without any shared
// mutable state, while the public constructor and operations below
// still match spec.md's acquire-effect-plus-release-function contract
// exactly (see DESIGN.md).
type Managed[E, A, R any] struct {
	acquire Eff[E, acquiredResource[A, R], R]
}

type acquiredResource[A, R any] struct {
	value   A
	release Eff[Never, Unit, R]
}

// Make describes a scoped resource: acquire produces a value of type A,
// release tears it down. Neither runs until a [Use] call reaches this
// Managed.
func Make[E, A, R any](acquire Eff[E, A, R], release func(A) Eff[Never, Unit, R]) Managed[E, A, R] {
	return Managed[E, A, R]{
		acquire: Chain(acquire, func(a A) Eff[E, acquiredResource[A, R], R] {
			return Const[E, acquiredResource[A, R], R](acquiredResource[A, R]{value: a, release: release(a)})
		}),
	}
}

// Use evaluates m.acquire, runs k against the acquired value, and runs
// m's release unconditionally before reproducing k's exit — exactly
// once, whether k succeeds, fails, or the enclosing fiber is aborted
// mid-use (spec.md §4.5, tested by S4/S5/S6 and the release-count
// property in spec.md §8).
func Use[E, A, B, R any](m Managed[E, A, R], k func(A) Eff[E, B, R]) Eff[E, B, R] {
	return Chain(m.acquire, func(h acquiredResource[A, R]) Eff[E, B, R] {
		return useAcquired(h.release, k(h.value))
	})
}

// useAcquired is the abort-safe bracket machinery: it forks k's body
// onto its own fiber, forks an independent releaser that observes the
// body's terminal state (success, failure, or abort — AwaitFiber
// resolves in all three cases) and always runs release, and only then
// — on the non-abort path — waits for the releaser before reproducing
// the body's exit. If the calling fiber itself is aborted while
// waiting, it aborts the body fiber via the registered cancellation
// hook and lets its own continuation be discarded by the interpreter;
// the releaser fiber is untouched by that abort and still runs release
// to completion in the background, which is what guarantees release
// fires even when the "enclosing fiber" is the one that aborts.
func useAcquired[E, B, R any](release Eff[Never, Unit, R], body Eff[E, B, R]) Eff[E, B, R] {
	return Chain(widenNever[*Fiber, E, R](Fork(body)), func(worker *Fiber) Eff[E, B, R] {
		releaseDone := Of[Never, Unit]()
		releaser := Chain(AwaitFiber[E, B, R](worker), func(Option[Either[E, B]]) Eff[E, Unit, R] {
			return Chain(widenNever[Unit, E, R](release), func(Unit) Eff[E, Unit, R] {
				return Void(Try[E, bool, R](func() bool {
					return releaseDone.setDirect(Right[Never, Unit](Unit{}))
				}))
			})
		})
		return Chain(widenNever[*Fiber, E, R](Fork(releaser)), func(*Fiber) Eff[E, B, R] {
			return Chain(awaitFiberAborting[E, B, R](worker), func(opt Option[Either[E, B]]) Eff[E, B, R] {
				exit, ok := opt.Get()
				if !ok {
					// The calling fiber triggered this abort (the cancel hook
					// below fired) and is therefore already Aborted; the
					// interpreter discards this continuation before it would
					// ever run. Released in the background by releaser.
					return NeverEff[E, B, R]()
				}
				return Chain(widenNever[Unit, E, R](AwaitGet[Never, Unit, R](releaseDone)), func(Unit) Eff[E, B, R] {
					return FromEither[E, B, R](exit)
				})
			})
		})
	})
}

// awaitFiberAborting is [AwaitFiber] plus a cancellation hook: if the
// caller's own suspension here is cancelled (because the calling fiber
// is itself aborted), f is aborted too. This is the "translate abort-
// of-parent into release-then-propagate" mechanism spec.md §4.5
// prescribes, kept local to Managed rather than folded into the
// general-purpose AwaitFiber/Join used elsewhere.
func awaitFiberAborting[E, A, R any](f *Fiber) Eff[E, Option[Either[E, A]], R] {
	return Async[E, Option[Either[E, A]], R](func(resume func(ok bool, v any), cancel *CancelHandle) {
		cancel.onCancel(f.Abort)
		f.onExit(func() {
			if f.aborted() {
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
	})
}

// ManagedMap transforms a Managed's acquired value, keeping its release
// effect untouched.
func ManagedMap[E, A, B, R any](m Managed[E, A, R], f func(A) B) Managed[E, B, R] {
	return Managed[E, B, R]{
		acquire: Map(m.acquire, func(h acquiredResource[A, R]) acquiredResource[B, R] {
			return acquiredResource[B, R]{value: f(h.value), release: h.release}
		}),
	}
}

// ManagedChain acquires m, then uses its value to describe a second Managed
// to acquire, composing their releases in LIFO order: the inner (f's)
// resource is released before the outer (m's).
func ManagedChain[E, A, B, R any](m Managed[E, A, R], f func(A) Managed[E, B, R]) Managed[E, B, R] {
	return Managed[E, B, R]{
		acquire: Chain(m.acquire, func(ha acquiredResource[A, R]) Eff[E, acquiredResource[B, R], R] {
			return Chain(f(ha.value).acquire, func(hb acquiredResource[B, R]) Eff[E, acquiredResource[B, R], R] {
				return Const[E, acquiredResource[B, R], R](acquiredResource[B, R]{
					value:   hb.value,
					release: AndThen(hb.release, ha.release),
				})
			})
		}),
	}
}

// ManagedZip acquires every Managed in ms in parallel and releases all of
// them in parallel on use-exit, per spec.md §4.5.
func ManagedZip[E, A, R any](ms []Managed[E, A, R]) Managed[E, []A, R] {
	return Managed[E, []A, R]{
		acquire: Map(Par(acquireAll(ms)), func(hs []acquiredResource[A, R]) acquiredResource[[]A, R] {
			values := make([]A, len(hs))
			releases := make([]Eff[Never, Unit, R], len(hs))
			for i, h := range hs {
				values[i] = h.value
				releases[i] = h.release
			}
			return acquiredResource[[]A, R]{value: values, release: Void(Par(releases))}
		}),
	}
}

func acquireAll[E, A, R any](ms []Managed[E, A, R]) []Eff[E, acquiredResource[A, R], R] {
	out := make([]Eff[E, acquiredResource[A, R], R], len(ms))
	for i, m := range ms {
		out[i] = m.acquire
	}
	return out
}
