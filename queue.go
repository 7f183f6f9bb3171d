// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"math"
	"sync"

	"github.com/google/uuid"
)

// QueueToken is the opaque handle [Queue.Offer] returns for the
// inserted node. Spec.md leaves the handle's representation
// unspecified ("opaque"); a random google/uuid.UUID is the most
// natural realization, grounded on pumped-fn-pumped-go's use of
// google/uuid for similar opaque resource ids in the retrieval pack.
type QueueToken struct{ id uuid.UUID }

// String renders the token for diagnostics.
func (t QueueToken) String() string { return t.id.String() }

type queuedOffer[A any] struct {
	value A
	done  *Await[Never, Unit]
}

// Queue is a bounded FIFO supporting a suspending Take and a
// non-blocking-when-capacity-allows Offer, built — like Managed —
// strictly from the Eff algebra plus a mutex-guarded mutable core,
// grounded on AnatoleLucet-sig's internal/queue.go EffectQueue/
// NodeQueue slice-backed FIFO shapes, generalized from "drain a batch
// of thunks" to "suspend until an item is available".
//
// Invariant (by construction, not a patched-up postcondition — see
// spec.md §9 open question and SPEC_FULL.md §10 decision 1): items and
// takers are never both non-empty. Offer hands a value directly to a
// waiting taker without ever touching items; Take only ever dequeues
// from items when takers is empty.
type Queue[A any] struct {
	mu       sync.Mutex
	capacity int
	items    []A
	takers   []*Await[Never, A]
	offerers []queuedOffer[A]
}

// Bounded creates a Queue holding at most capacity items before Offer
// suspends the offering fiber.
func Bounded[A any](capacity int) *Queue[A] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[A]{capacity: capacity}
}

// Unbounded creates a Queue whose Offer never suspends for capacity.
func Unbounded[A any]() *Queue[A] {
	return &Queue[A]{capacity: math.MaxInt}
}

// Offer inserts a into the queue. If a fiber is already suspended in
// Take, a is handed to it directly, bypassing items entirely. Else, if
// there is room, a is appended to items. Else the offering fiber
// suspends until Take frees a slot.
func (q *Queue[A]) Offer(a A) Eff[Never, QueueToken, Unit] {
	return TryM(func() Eff[Never, QueueToken, Unit] {
		token := QueueToken{id: uuid.New()}
		q.mu.Lock()
		if len(q.takers) > 0 {
			taker := q.takers[0]
			q.takers = q.takers[1:]
			q.mu.Unlock()
			taker.setDirect(Right[Never, A](a))
			return Const[Never, QueueToken, Unit](token)
		}
		if len(q.items) < q.capacity {
			q.items = append(q.items, a)
			q.mu.Unlock()
			return Const[Never, QueueToken, Unit](token)
		}
		wait := Of[Never, Unit]()
		q.offerers = append(q.offerers, queuedOffer[A]{value: a, done: wait})
		q.mu.Unlock()
		return Map(wait.Get(), func(Unit) QueueToken { return token })
	})
}

// Take removes and returns the oldest item, suspending if the queue is
// empty until an Offer supplies one.
func (q *Queue[A]) Take() Eff[Never, A, Unit] {
	return TryM(func() Eff[Never, A, Unit] {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.admitOneOffererLocked()
			q.mu.Unlock()
			return Const[Never, A, Unit](v)
		}
		waiter := Of[Never, A]()
		q.takers = append(q.takers, waiter)
		q.mu.Unlock()
		return waiter.Get()
	})
}

// admitOneOffererLocked moves one blocked offerer's value into the
// slot Take just freed and wakes it. Called with q.mu held.
func (q *Queue[A]) admitOneOffererLocked() {
	if len(q.offerers) == 0 {
		return
	}
	off := q.offerers[0]
	q.offerers = q.offerers[1:]
	q.items = append(q.items, off.value)
	off.done.setDirect(Right[Never, Unit](Unit{}))
}

// TakeN takes n items in order, suspending as needed between them.
func (q *Queue[A]) TakeN(n int) Eff[Never, []A, Unit] {
	acc := Const[Never, []A, Unit](nil)
	for i := 0; i < n; i++ {
		acc = Chain(acc, func(xs []A) Eff[Never, []A, Unit] {
			return Map(q.Take(), func(a A) []A {
				out := make([]A, len(xs), len(xs)+1)
				copy(out, xs)
				return append(out, a)
			})
		})
	}
	return acc
}

// Size returns the number of items currently buffered — a snapshot,
// not synchronized with any in-flight Take.
func (q *Queue[A]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Length is Size under the teacher pack's alternate naming (some
// source ecosystems favor "length" over "size" for the same count).
func (q *Queue[A]) Length() int { return q.Size() }

// AsArray returns a snapshot copy of the buffered items, oldest first.
func (q *Queue[A]) AsArray() []A {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]A, len(q.items))
	copy(out, q.items)
	return out
}

// AsStream returns a pull function whose repeated calls unfold the
// queue's sequence of taken values — spec.md §4.6's asStream, which
// is nothing more than q.Take itself; a full Stream abstraction with
// combinators is an out-of-scope external collaborator (spec.md §1).
func (q *Queue[A]) AsStream() func() Eff[Never, A, Unit] {
	return q.Take
}
