// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import "sync/atomic"

// cont is the interpreter's continuation stack, represented the same
// way the teacher represents Frame: a sealed marker interface with one
// concrete struct per shape, dispatched by type switch rather than by
// closures. Unlike a closure-based continuation, a cont chain can be
// captured, inspected, and resumed across an Async suspension without
// holding a live Go stack frame.
type cont interface {
	cont()
}

// applyMapCont applies a Map function to a delivered success value.
type applyMapCont struct {
	f    func(any) any
	next cont
}

func (*applyMapCont) cont() {}

// applyChainCont applies a Chain function to a delivered success value,
// producing the next node to reduce. env is the environment that was
// active when the chainNode was pushed, not the (generally nil)
// environment the delivery itself carries — the produced node must
// resume in the scope it was written in.
type applyChainCont struct {
	f    func(any) node
	env  any
	next cont
}

func (*applyChainCont) cont() {}

// recoverCont intercepts a delivered failure (never an interruption)
// and invokes the Catch handler to produce the next node to reduce.
// env is captured at push time for the same reason applyChainCont's is.
type recoverCont struct {
	handler func(any) node
	env     any
	next    cont
}

func (*recoverCont) cont() {}

// envCont restores the previous environment after a Provide-scoped
// computation completes, successfully or not.
type envCont struct {
	prevEnv any
	next    cont
}

func (*envCont) cont() {}

// action is a single step of interpreter work: either "reduce this node
// in this environment" or "deliver this value up the continuation".
type action struct {
	reduceNode node
	env        any
	deliverOK  bool
	deliverV   any
	interrupt  bool
	k          cont
}

func reduceStep(n node, env any, k cont) action {
	return action{reduceNode: n, env: env, k: k}
}

func deliverStep(ok bool, v any, k cont) action {
	return action{deliverOK: ok, deliverV: v, k: k}
}

func interruptStep(k cont) action {
	return action{interrupt: true, k: k}
}

// run drives the fiber's interpreter loop starting from act, until the
// fiber either completes, suspends on Async, or parks forever on Never.
// It is re-entered by resume after an Async callback fires.
func (fb *Fiber) run(act action) {
	for {
		if fb.aborted() {
			act = interruptStep(act.k)
		}

		switch {
		case act.interrupt:
			fb.deliverInterrupt(act.k)
			return

		case act.reduceNode != nil:
			var next action
			switch t := act.reduceNode.(type) {
			case *constNode:
				next = deliverStep(true, t.value, act.k)
			case *rejectNode:
				next = deliverStep(false, t.err, act.k)
			case *tryNode:
				v := t.thunk()
				if pe, ok := v.(panicErr); ok {
					next = deliverStep(false, pe.err, act.k)
				} else {
					next = deliverStep(true, v, act.k)
				}
			case *tryMNode:
				next = reduceStep(t.thunk(), act.env, act.k)
			case *mapNode:
				next = reduceStep(t.src, act.env, &applyMapCont{f: t.f, next: act.k})
			case *chainNode:
				next = reduceStep(t.src, act.env, &applyChainCont{f: t.f, env: act.env, next: act.k})
			case *catchNode:
				next = reduceStep(t.src, act.env, &recoverCont{handler: t.handler, env: act.env, next: act.k})
			case *mapAccessNode:
				next = deliverStep(true, t.f(act.env), act.k)
			case *provideNode:
				next = reduceStep(t.src, t.env, &envCont{prevEnv: act.env, next: act.k})
			case *runtimeNode:
				next = reduceStep(t.f(fb), act.env, act.k)
			case *forkNode:
				child := fb.rt.spawnChild(fb, t.src, act.env)
				next = deliverStep(true, child, act.k)
			case *neverNode:
				return
			case *callNode:
				next = reduceStep(t.thunk(), act.env, act.k)
			case *asyncNode:
				cancel := newCancelHandle()
				fb.setPending(cancel)
				env := act.env
				k := act.k
				var resumed atomic.Bool
				t.register(func(ok bool, v any) {
					if !resumed.CompareAndSwap(false, true) {
						return
					}
					fb.clearPending()
					fb.rt.scheduler.Asap(func() { fb.run(deliverStep(ok, v, k).withEnv(env)) })
				}, cancel)
				return
			case *interruptNode:
				fb.Abort()
				next = interruptStep(act.k)
			default:
				panic("weft: unknown node type in interpreter")
			}
			act = next

		default:
			if act.k == nil {
				fb.complete(act.deliverOK, act.deliverV)
				return
			}
			var next action
			switch f := act.k.(type) {
			case *applyMapCont:
				if act.deliverOK {
					r := f.f(act.deliverV)
					if pe, ok := r.(panicErr); ok {
						next = deliverStep(false, pe.err, f.next)
					} else {
						next = deliverStep(true, r, f.next)
					}
				} else {
					next = deliverStep(false, act.deliverV, f.next)
				}
			case *applyChainCont:
				if act.deliverOK {
					next = reduceStep(f.f(act.deliverV), f.env, f.next)
				} else {
					next = deliverStep(false, act.deliverV, f.next)
				}
			case *recoverCont:
				if act.deliverOK {
					next = deliverStep(true, act.deliverV, f.next)
				} else {
					next = reduceStep(f.handler(act.deliverV), f.env, f.next)
				}
			case *envCont:
				next = deliverStep(act.deliverOK, act.deliverV, f.next).withEnv(f.prevEnv)
			default:
				panic("weft: unknown continuation type in interpreter")
			}
			act = next
		}
	}
}

func (a action) withEnv(env any) action {
	a.env = env
	return a
}
