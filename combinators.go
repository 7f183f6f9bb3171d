// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"sync"
	"time"
)

// Derived combinators add no new semantics to the algebra in eff.go —
// each is defined purely in terms of Chain/Map/Async/Fork, matching the
// teacher's monad.go split between a minimal primitive set and the
// Map/Then conveniences layered on top.

// Void discards m's success value.
func Void[E, A, R any](m Eff[E, A, R]) Eff[E, Unit, R] {
	return Map(m, func(A) Unit { return Unit{} })
}

// AndThen sequences m then n, discarding m's result — the teacher's
// Then, specialized to the error-aware algebra.
func AndThen[E, A, B, R any](m Eff[E, A, R], n Eff[E, B, R]) Eff[E, B, R] {
	return Chain(m, func(A) Eff[E, B, R] { return n })
}

// FromEither lifts an already-computed Either into Eff without
// suspending: Left becomes Reject, Right becomes Const.
func FromEither[E, A, R any](e Either[E, A]) Eff[E, A, R] {
	if v, ok := e.GetRight(); ok {
		return Const[E, A, R](v)
	}
	err, _ := e.GetLeft()
	return Reject[E, A, R](err)
}

// Delay suspends the calling fiber for d, then succeeds with Unit.
// Built directly on Async + the Scheduler.Delay contract, per
// spec.md §4.2.
func Delay[E, R any](d time.Duration) Eff[E, Unit, R] {
	return RuntimeEff(func(fb *Fiber) Eff[E, Unit, R] {
		return Async[E, Unit, R](func(resume func(ok bool, v any), cancel *CancelHandle) {
			h := fb.rt.scheduler.Delay(d, func() { resume(true, Unit{}) })
			cancel.onCancel(h.Cancel)
		})
	})
}

// Timeout resolves to v after d has elapsed. It is the building block
// for racing a computation against a deadline.
func Timeout[E, A, R any](v A, d time.Duration) Eff[E, A, R] {
	return Chain(Delay[E, R](d), func(Unit) Eff[E, A, R] { return Const[E, A, R](v) })
}

// Seq folds a list of effects left to right with Chain, running each
// only after its predecessor completes and collecting their successes
// in declaration order. Equivalent to spec.md §4.2's seq(list).
func Seq[E, A, R any](effs []Eff[E, A, R]) Eff[E, []A, R] {
	acc := Const[E, []A, R](nil)
	for _, e := range effs {
		e := e
		acc = Chain(acc, func(xs []A) Eff[E, []A, R] {
			return Map(e, func(a A) []A {
				out := make([]A, len(xs), len(xs)+1)
				copy(out, xs)
				return append(out, a)
			})
		})
	}
	return acc
}

// Once lazily runs eff exactly once no matter how many times the
// returned Eff is reduced — sequentially in one fiber, or forked
// concurrently across many (spec.md §8 property 6). The first
// reduction to reach this node forks eff and captures its exit into a
// shared [Await]; every reduction (including the first) resolves from
// that Await, so all observers share the single run's exit.
func Once[E, A any](eff Eff[E, A, Unit]) Eff[E, A, Unit] {
	latch := Of[E, A]()
	var start sync.Once
	return RuntimeEff(func(fb *Fiber) Eff[E, A, Unit] {
		start.Do(func() {
			child := fb.rt.spawnChild(fb, eff.n, any(Unit{}))
			child.onExit(func() {
				if child.aborted() {
					return
				}
				child.mu.Lock()
				ok, v := child.exitOK, child.exitVal
				child.mu.Unlock()
				if ok {
					latch.setDirect(Right[E, A](v.(A)))
				} else {
					latch.setDirect(Left[E, A](v.(E)))
				}
			})
		})
		return latch.Get()
	})
}

// raceWith is the canonical primitive underlying Race/ZipWithPar/Par
// per spec.md §4.3: fork both sides, let whichever finishes first
// decide the outcome via cb1/cb2 (handed the loser's still-running
// Fiber so it can join or abort it), and resolve once either callback's
// result is captured. Ties are broken by whichever Await.Set fires
// first, well-defined because the scheduler serializes it.
func raceWith[E, A, B, C, R any](
	a Eff[E, A, R],
	b Eff[E, B, R],
	cb1 func(Either[E, A], *Fiber) Eff[E, C, R],
	cb2 func(Either[E, B], *Fiber) Eff[E, C, R],
) Eff[E, C, R] {
	toEither := func(eff Eff[E, C, R]) Eff[Never, Either[E, C], R] {
		return Catch(
			Map(eff, func(c C) Either[E, C] { return Right[E, C](c) }),
			func(e E) Eff[Never, Either[E, C], R] {
				return Const[Never, Either[E, C], R](Left[E, C](e))
			},
		)
	}
	return Chain(widenNever[*Fiber, E, R](Fork(a)), func(fa *Fiber) Eff[E, C, R] {
		return Chain(widenNever[*Fiber, E, R](Fork(b)), func(fb *Fiber) Eff[E, C, R] {
			done := Of[E, C]()
			settle := func(eff Eff[E, C, R]) Eff[Never, Unit, R] {
				return Chain(toEither(eff), func(e Either[E, C]) Eff[Never, Unit, R] {
					return Void(Try[Never, bool, R](func() bool { return done.setDirect(e) }))
				})
			}
			onLeft := Chain(AwaitFiber[E, A, R](fa), func(opt Option[Either[E, A]]) Eff[E, Unit, R] {
				exit, ok := opt.Get()
				if !ok {
					return Const[E, Unit, R](Unit{})
				}
				return widenNever[Unit, E, R](settle(cb1(exit, fb)))
			})
			onRight := Chain(AwaitFiber[E, B, R](fb), func(opt Option[Either[E, B]]) Eff[E, Unit, R] {
				exit, ok := opt.Get()
				if !ok {
					return Const[E, Unit, R](Unit{})
				}
				return widenNever[Unit, E, R](settle(cb2(exit, fa)))
			})
			return Chain(widenNever[*Fiber, E, R](Fork(onLeft)), func(*Fiber) Eff[E, C, R] {
				return Chain(widenNever[*Fiber, E, R](Fork(onRight)), func(*Fiber) Eff[E, C, R] {
					return AwaitGet[E, C, R](done)
				})
			})
		})
	})
}

// widenNever re-labels an effect that structurally cannot fail (error
// channel [Never]) as one over an arbitrary error channel E. The
// handler Catch installs is unreachable: nothing in the algebra ever
// constructs a Reject carrying a Never value, so there is no value of
// type Never for the handler to be invoked with. This is how raceWith
// plumbs [Fork] (always Never) through Chains whose error channel is
// the caller's E.
func widenNever[A, E, R any](m Eff[Never, A, R]) Eff[E, A, R] {
	return Catch(m, func(Never) Eff[E, A, R] {
		panic("weft: unreachable Never failure")
	})
}

// abortAndThen aborts f, then produces next — used by Race and
// ZipWithPar's losing/failing side to interrupt the sibling fiber
// before resolving.
func abortAndThen[E, C, R any](f *Fiber, next Eff[E, C, R]) Eff[E, C, R] {
	return Chain(Try[E, Unit, R](func() Unit { f.Abort(); return Unit{} }), func(Unit) Eff[E, C, R] {
		return next
	})
}

// Race runs a and b concurrently and resolves with whichever finishes
// first, aborting the other. Under a deterministic scheduler with
// delays da < db, Race(Delay-then-A, Delay-then-B) always yields A and
// leaves B's fiber Aborted (spec.md §8 property 5).
func Race[E, A, R any](a, b Eff[E, A, R]) Eff[E, A, R] {
	return raceWith(a, b,
		func(exitL Either[E, A], fb *Fiber) Eff[E, A, R] {
			return abortAndThen(fb, FromEither[E, A, R](exitL))
		},
		func(exitR Either[E, A], fa *Fiber) Eff[E, A, R] {
			return abortAndThen(fa, FromEither[E, A, R](exitR))
		},
	)
}

// Pair is the tuple ZipPar combines two effects' successes into.
type Pair[A, B any] struct {
	First  A
	Second B
}

// ZipWithPar runs a and b concurrently to completion (neither is
// aborted on the other's success) and combines their successes with f,
// applied in declared position (a's value first, b's value second)
// regardless of which completes first. A failure on either side aborts
// the other and propagates.
func ZipWithPar[E, A, B, C, R any](a Eff[E, A, R], b Eff[E, B, R], f func(A, B) C) Eff[E, C, R] {
	return raceWith(a, b,
		func(exitL Either[E, A], fb *Fiber) Eff[E, C, R] {
			return MatchEither(exitL,
				func(e E) Eff[E, C, R] { return abortAndThen(fb, Reject[E, C, R](e)) },
				func(av A) Eff[E, C, R] {
					return Chain(Join[E, B, R](fb), func(bv B) Eff[E, C, R] {
						return Const[E, C, R](f(av, bv))
					})
				},
			)
		},
		func(exitR Either[E, B], fa *Fiber) Eff[E, C, R] {
			return MatchEither(exitR,
				func(e E) Eff[E, C, R] { return abortAndThen(fa, Reject[E, C, R](e)) },
				func(bv B) Eff[E, C, R] {
					return Chain(Join[E, A, R](fa), func(av A) Eff[E, C, R] {
						return Const[E, C, R](f(av, bv))
					})
				},
			)
		},
	)
}

// ZipPar runs a and b concurrently and pairs their successes.
func ZipPar[E, A, B, R any](a Eff[E, A, R], b Eff[E, B, R]) Eff[E, Pair[A, B], R] {
	return ZipWithPar(a, b, func(av A, bv B) Pair[A, B] { return Pair[A, B]{First: av, Second: bv} })
}

// Par runs every effect in list concurrently and collects their
// successes in declaration order, left-folding ZipWithPar per
// spec.md §4.2's par(list).
func Par[E, A, R any](list []Eff[E, A, R]) Eff[E, []A, R] {
	acc := Const[E, []A, R](nil)
	for _, e := range list {
		acc = ZipWithPar(acc, e, func(xs []A, a A) []A {
			out := make([]A, len(xs), len(xs)+1)
			copy(out, xs)
			return append(out, a)
		})
	}
	return acc
}

// ParN runs list with at most n effects racing concurrently at a time:
// list is chunked into groups of size ≤ n, each chunk run with Par, and
// chunks themselves run one after another via Chain. Equivalent to
// spec.md §4.2's parN(n, list).
func ParN[E, A, R any](n int, list []Eff[E, A, R]) Eff[E, []A, R] {
	if n <= 0 {
		n = 1
	}
	var chunks [][]Eff[E, A, R]
	for i := 0; i < len(list); i += n {
		end := i + n
		if end > len(list) {
			end = len(list)
		}
		chunks = append(chunks, list[i:end])
	}
	acc := Const[E, []A, R](nil)
	for _, chunk := range chunks {
		chunk := chunk
		acc = Chain(acc, func(xs []A) Eff[E, []A, R] {
			return Map(Par(chunk), func(ys []A) []A {
				out := make([]A, len(xs), len(xs)+len(ys))
				copy(out, xs)
				return append(out, ys...)
			})
		})
	}
	return acc
}
