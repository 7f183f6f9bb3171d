// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

// node is the type-erased, tagged representation underlying every [Eff]
// value. Like the teacher's Frame, node is a sealed marker interface:
// each constructor produces its own concrete struct and dispatch is a
// type switch in the interpreter, never subclass polymorphism. Fields
// that would otherwise need to be generic over the enclosing E/A/R are
// erased to any — Go cannot express a single dispatchable type across
// heterogeneous BindFrame[int,string] vs BindFrame[string,bool]
// instantiations, so erasure happens once at construction and the
// generic [Eff] facade recovers concrete types at its boundary.
type node interface {
	node()
}

// Eff is an immutable description of a computation with an error
// channel E, a success channel A, and an environment requirement R.
// Eff values carry no behavior of their own; [UnsafeRun] and
// [UnsafeRunSync] are what interpret them.
type Eff[E, A, R any] struct {
	n node
}

func wrap[E, A, R any](n node) Eff[E, A, R] { return Eff[E, A, R]{n: n} }

// constNode lifts a plain value into the success channel.
type constNode struct{ value any }

func (*constNode) node() {}

// Const lifts a pure value a into Eff, never failing, requiring nothing.
func Const[E, A, R any](a A) Eff[E, A, R] {
	return wrap[E, A, R](&constNode{value: a})
}

// rejectNode lifts a plain value into the error channel.
type rejectNode struct{ err any }

func (*rejectNode) node() {}

// Reject lifts a pure error into Eff's error channel.
func Reject[E, A, R any](e E) Eff[E, A, R] {
	return wrap[E, A, R](&rejectNode{err: e})
}

// tryNode wraps a thunk whose panics are reified into the error channel.
type tryNode struct{ thunk func() any }

func (*tryNode) node() {}

// panicErr is a sentinel the interpreter recognizes in place of a
// delivered success value: it signals that the node's function panicked
// and the panic was converted to an E at construction time (where E is
// still known). Map/Chain/Try bake this conversion in at construction;
// the interpreter just checks for panicErr when applying the result.
type panicErr struct{ err any }

// recoveringFunc wraps f so a panic convertible to E becomes a panicErr
// result instead of propagating; panics not convertible to E re-panic,
// since there is no way to manufacture an arbitrary E from an opaque
// recovered value.
func recoveringFunc[E any](f func() any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := recoverToError[E](r); ok {
				result = panicErr{err: e}
				return
			}
			panic(r)
		}
	}()
	return f()
}

// Try wraps a synchronous function that may panic. A panic recovered
// during interpretation is reified into the error channel when E is
// (or the recovered value is convertible to) the concrete type E;
// otherwise the panic re-propagates, since Go cannot manufacture an
// arbitrary E from an opaque recovered value.
func Try[E, A, R any](f func() A) Eff[E, A, R] {
	thunk := func() any { return f() }
	return wrap[E, A, R](&tryNode{thunk: func() any { return recoveringFunc[E](thunk) }})
}

// tryMNode wraps a thunk that itself produces an Eff. Unlike Try, a
// panic here is NOT recovered by the interpreter: TryM is meant for
// composing further Eff construction, not for wrapping host effects.
type tryMNode struct{ thunk func() node }

func (*tryMNode) node() {}

// TryM lazily constructs an Eff. Useful for deferring construction of
// a possibly-expensive or self-referential computation until it is
// actually reached by the interpreter.
func TryM[E, A, R any](f func() Eff[E, A, R]) Eff[E, A, R] {
	return wrap[E, A, R](&tryMNode{thunk: func() node { return f().n }})
}

// mapNode applies a pure function to a successful result.
type mapNode struct {
	src node
	f   func(any) any
}

func (*mapNode) node() {}

// Map transforms the success value of m with f. A panic inside f is
// reified into the error channel, per the same convertibility rule
// as Try.
func Map[E, A, B, R any](m Eff[E, A, R], f func(A) B) Eff[E, B, R] {
	wrapped := func(a any) any { return recoveringFunc[E](func() any { return f(a.(A)) }) }
	return wrap[E, B, R](&mapNode{src: m.n, f: wrapped})
}

// chainNode is monadic bind: run src, then feed its result to f to
// obtain the next node.
type chainNode struct {
	src node
	f   func(any) node
}

func (*chainNode) node() {}

// Chain sequences m with a function producing the next Eff, threading
// the success channel. A panic inside f is reified into the error
// channel (as a rejectNode), per the same convertibility rule as Try.
func Chain[E, A, B, R any](m Eff[E, A, R], f func(A) Eff[E, B, R]) Eff[E, B, R] {
	wrapped := func(a any) node {
		r := recoveringFunc[E](func() any { return f(a.(A)).n })
		if pe, ok := r.(panicErr); ok {
			return &rejectNode{err: pe.err}
		}
		return r.(node)
	}
	return wrap[E, B, R](&chainNode{src: m.n, f: wrapped})
}

// catchNode recovers from a failure in src by invoking handler.
// catchNode never recovers from fiber interruption — interruption
// bypasses handler entirely and propagates to fiber termination.
type catchNode struct {
	src     node
	handler func(any) node
}

func (*catchNode) node() {}

// Catch recovers m's failure with handler, producing a new Eff with
// error channel E2. Catch does not recover from an aborted fiber: an
// interrupted m propagates past Catch untouched.
func Catch[E, A, R, E2 any](m Eff[E, A, R], handler func(E) Eff[E2, A, R]) Eff[E2, A, R] {
	return wrap[E2, A, R](&catchNode{src: m.n, handler: func(e any) node { return handler(e.(E)).n }})
}

// asyncNode suspends the fiber until register invokes the supplied
// callback, at most once, with either a success or failure value.
type asyncNode struct {
	register func(resume func(ok bool, v any), cancel *CancelHandle)
}

func (*asyncNode) node() {}

// Async suspends the fiber and invokes register with a resume callback
// and a cancellation handle. register must arrange for resume to be
// called at most once with either the success value (ok=true) or the
// error value (ok=false); calling it more than once is a no-op beyond
// the first, matching the affine resume semantics of a one-shot latch.
// If the enclosing fiber is aborted while suspended, cancel.Cancel() is
// invoked; a later call to resume only delivers the interruption, and
// the suspended continuation never runs.
func Async[E, A, R any](register func(resume func(ok bool, v any), cancel *CancelHandle)) Eff[E, A, R] {
	return wrap[E, A, R](&asyncNode{register: register})
}

// accessNode reads the current environment.
type accessNode struct{}

func (*accessNode) node() {}

// Access reads the currently provided environment of type R. Panics
// at interpretation time if the current environment is not of type R
// (root fibers start with Unit; [Provide] installs others) — the same "unhandled effect" failure
// mode the teacher's effect handlers use for a missing dispatcher.
func Access[E, A, R any](f func(R) A) Eff[E, A, R] {
	return wrap[E, A, R](&mapAccessNode{f: func(env any) any { return f(env.(R)) }})
}

type mapAccessNode struct{ f func(any) any }

func (*mapAccessNode) node() {}

// provideNode runs src with env pushed as the current environment.
type provideNode struct {
	src node
	env any
}

func (*provideNode) node() {}

// Provide supplies the environment R to m, satisfying its requirement.
// The environment is scoped: it is popped when m completes, restoring
// whatever environment was current before Provide ran.
func Provide[E, A, R any](m Eff[E, A, R], env R) Eff[E, A, Unit] {
	return wrap[E, A, Unit](&provideNode{src: m.n, env: env})
}

// runtimeNode grants access to the current fiber, for primitives
// (Await, Managed, Queue) built on top of the core algebra.
type runtimeNode struct{ f func(*Fiber) node }

func (*runtimeNode) node() {}

// RuntimeEff exposes the current fiber to f, which must produce the
// continuation node. This is how Await/Managed/Queue are built without
// widening the sealed algebra for every new primitive.
func RuntimeEff[E, A, R any](f func(*Fiber) Eff[E, A, R]) Eff[E, A, R] {
	return wrap[E, A, R](&runtimeNode{f: func(fb *Fiber) node { return f(fb).n }})
}

// forkNode spawns src on a new, independent fiber and resolves to a
// handle for it.
type forkNode struct{ src node }

func (*forkNode) node() {}

// Fork starts m on a new fiber and immediately resolves to a [Fiber]
// handle for it, without waiting for m to complete. The forked fiber
// inherits a snapshot of the current environment at the point Fork is
// interpreted; later Provide calls in either fiber do not affect the
// other.
func Fork[E, A, R any](m Eff[E, A, R]) Eff[Never, *Fiber, R] {
	return wrap[Never, *Fiber, R](&forkNode{src: m.n})
}

// neverNode never completes.
type neverNode struct{}

func (*neverNode) node() {}

// NeverEff is an effect that never completes; it can only be escaped
// by the enclosing fiber being aborted. (Await.Get and Queue.Take
// suspend through [Async] instead, since another fiber resumes them.)
func NeverEff[E, A, R any]() Eff[E, A, R] {
	return wrap[E, A, R](neverSingleton)
}

var neverSingleton = &neverNode{}

// callNode is a trampoline point: instead of recursing to build m
// directly, Call defers construction, turning what would be Go-stack
// recursion into interpreter-loop iteration. Unlike Try/Map/Chain,
// panics inside the thunk are not recovered — Call is a control-flow
// primitive, not a host-effect boundary.
type callNode struct{ thunk func() node }

func (*callNode) node() {}

// Call defers construction of m until the interpreter reaches this
// point in the frame chain, keeping deeply (even infinitely, combined
// with TryM) recursive Eff construction from growing the Go call stack.
func Call[E, A, R any](f func() Eff[E, A, R]) Eff[E, A, R] {
	return wrap[E, A, R](&callNode{thunk: func() node { return f().n }})
}

// interruptNode is an internal marker, never constructed by user code
// or exposed through the public algebra. [Join] produces it when the
// joined fiber was aborted, and the interpreter's dispatch-by-tag
// switch turns it into an abort of the current fiber (bypassing
// Catch, per spec: interruption is not a recoverable error).
type interruptNode struct{}

func (*interruptNode) node() {}

var interruptSingleton = &interruptNode{}

// recoverToError attempts to convert a recovered panic value r into
// error channel type E. It succeeds only when r itself is directly
// assertable to E (wrapped errors are not unwrapped) — there is no general way to
// manufacture an arbitrary E from an opaque panic value.
func recoverToError[E any](r any) (E, bool) {
	if e, ok := r.(E); ok {
		return e, true
	}
	var zero E
	return zero, false
}
