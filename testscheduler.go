// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import (
	"container/heap"
	"time"
)

// VirtualScheduler is a deterministic, manually-advanced [Scheduler]
// for tests: an asap FIFO plus an ordered heap of (fireAt, seq)
// timers, advanced by Advance or drained by Run. No goroutine, no real
// clock — the race-determinism property and [UnsafeRunSync] are built
// on this.
//
// Grounded on AnatoleLucet-sig's internal/scheduler.go tick/clock
// bookkeeping, generalized from "one logical tick" to "an ordered
// virtual timeline" via container/heap, since the ecosystem has no
// general-purpose library for "ordered virtual timers with manual
// advance" — this is test infrastructure narrow enough that writing
// the ~40 lines beats adding a dependency for one call site.
type VirtualScheduler struct {
	now    time.Duration
	asap   []func()
	timers timerHeap
	seq    uint64
}

// NewVirtualScheduler creates a scheduler at virtual time zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

type timerEntry struct {
	fireAt    time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Asap implements [Scheduler].
func (s *VirtualScheduler) Asap(fn func()) *CancelHandle {
	entry := &timerEntry{fn: fn}
	s.asap = append(s.asap, func() {
		if !entry.cancelled {
			fn()
		}
	})
	return newCancelHandleFn(func() { entry.cancelled = true })
}

// Delay implements [Scheduler]: fn fires once the virtual clock has
// advanced by at least d.
func (s *VirtualScheduler) Delay(d time.Duration, fn func()) *CancelHandle {
	s.seq++
	entry := &timerEntry{fireAt: s.now + d, seq: s.seq, fn: fn}
	heap.Push(&s.timers, entry)
	return newCancelHandleFn(func() { entry.cancelled = true })
}

// Advance moves virtual time forward by d, running every asap thunk
// queued so far and every timer that now falls due (in turn — firing a
// timer may itself queue more asap work or timers, which also run
// before Advance returns).
func (s *VirtualScheduler) Advance(d time.Duration) {
	target := s.now + d
	s.drainAsap()
	for s.timers.Len() > 0 && s.timers[0].fireAt <= target {
		e := heap.Pop(&s.timers).(*timerEntry)
		s.now = e.fireAt
		if !e.cancelled {
			e.fn()
		}
		s.drainAsap()
	}
	if s.now < target {
		s.now = target
	}
}

// Run drains all queued asap work and fires every pending timer,
// advancing virtual time to each timer's fireAt in turn, until nothing
// is left pending. Used by [UnsafeRunSync] to run a computation to
// completion.
func (s *VirtualScheduler) Run() {
	s.drainAsap()
	for s.timers.Len() > 0 {
		e := heap.Pop(&s.timers).(*timerEntry)
		s.now = e.fireAt
		if !e.cancelled {
			e.fn()
		}
		s.drainAsap()
	}
}

func (s *VirtualScheduler) drainAsap() {
	for len(s.asap) > 0 {
		fn := s.asap[0]
		s.asap = s.asap[1:]
		fn()
	}
}

// Now returns the current virtual time.
func (s *VirtualScheduler) Now() time.Duration { return s.now }
