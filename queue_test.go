// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	weft "github.com/weftrun/weft"
)

// TestQueueFIFOOrder is spec.md §8 property 8: items come out in the
// order they were offered.
func TestQueueFIFOOrder(t *testing.T) {
	q := weft.Bounded[int](10)
	prog := weft.Chain(q.Offer(1), func(weft.QueueToken) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
		return weft.Chain(q.Offer(2), func(weft.QueueToken) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
			return weft.Chain(q.Offer(3), func(weft.QueueToken) weft.Eff[weft.Never, []int, weft.Unit] {
				return q.TakeN(3)
			})
		})
	})
	outcome, err := weft.UnsafeRunSync(prog)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, v)
}

func TestQueueTakeSuspendsUntilOffer(t *testing.T) {
	q := weft.Bounded[string](4)
	vs := weft.NewVirtualScheduler()
	rt := weft.NewRuntime(vs)

	var got string
	weft.UnsafeRun(rt, q.Take(), func(e weft.Either[weft.Never, string]) {
		got, _ = e.GetRight()
	})
	vs.Run()
	require.Empty(t, got)

	weft.UnsafeRun(rt, q.Offer("hello"), nil)
	vs.Run()
	require.Equal(t, "hello", got)
}

// TestQueueOfferSuspendsAtCapacity demonstrates back-pressure: an
// Offer beyond capacity does not resolve until a Take frees a slot.
func TestQueueOfferSuspendsAtCapacity(t *testing.T) {
	q := weft.Bounded[int](1)
	vs := weft.NewVirtualScheduler()
	rt := weft.NewRuntime(vs)

	weft.UnsafeRun(rt, q.Offer(1), nil)
	vs.Run()
	require.Equal(t, 1, q.Size())

	offerDone := false
	weft.UnsafeRun(rt, q.Offer(2), func(weft.Either[weft.Never, weft.QueueToken]) { offerDone = true })
	vs.Run()
	require.False(t, offerDone, "second Offer should suspend while the queue is at capacity")

	var taken int
	weft.UnsafeRun(rt, q.Take(), func(e weft.Either[weft.Never, int]) {
		taken, _ = e.GetRight()
	})
	vs.Run()
	require.Equal(t, 1, taken)
	require.True(t, offerDone, "blocked Offer should resolve once a slot frees up")
	require.Equal(t, 1, q.Size())
}

func TestQueueOfferHandsOffDirectlyToWaitingTaker(t *testing.T) {
	q := weft.Unbounded[int]()
	vs := weft.NewVirtualScheduler()
	rt := weft.NewRuntime(vs)

	var got int
	weft.UnsafeRun(rt, q.Take(), func(e weft.Either[weft.Never, int]) {
		got, _ = e.GetRight()
	})
	vs.Run()

	weft.UnsafeRun(rt, q.Offer(5), nil)
	vs.Run()

	require.Equal(t, 5, got)
	require.Equal(t, 0, q.Size(), "a direct taker hand-off must never touch items")
}
