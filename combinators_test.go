// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	weft "github.com/weftrun/weft"
)

// TestRaceDeterminism is spec.md §8 property 5: under a deterministic
// scheduler, racing two delayed effects always resolves to the side
// with the shorter delay. Race aborts the loser; this test checks only
// the winner, since Race does not expose the loser's fiber.
func TestRaceDeterminism(t *testing.T) {
	for i := 0; i < 5; i++ {
		winnerA := weft.Chain(weft.Delay[string, weft.Unit](10*time.Millisecond), func(weft.Unit) weft.Eff[string, string, weft.Unit] {
			return weft.Const[string, string, weft.Unit]("A")
		})
		loserB := weft.Chain(weft.Delay[string, weft.Unit](100*time.Millisecond), func(weft.Unit) weft.Eff[string, string, weft.Unit] {
			return weft.Const[string, string, weft.Unit]("B")
		})
		outcome, err := weft.UnsafeRunSync(weft.Race(winnerA, loserB))
		require.NoError(t, err)
		v, ok := outcome.GetRight()
		require.True(t, ok)
		require.Equal(t, "A", v)
	}
}

func TestZipWithParCombinesInDeclaredOrder(t *testing.T) {
	fast := weft.Chain(weft.Delay[string, weft.Unit](5*time.Millisecond), func(weft.Unit) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](1)
	})
	slow := weft.Chain(weft.Delay[string, weft.Unit](50*time.Millisecond), func(weft.Unit) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](2)
	})
	eff := weft.ZipWithPar(fast, slow, func(a, b int) int { return a*10 + b })
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, 12, v)
}

func TestZipWithParPropagatesEitherFailure(t *testing.T) {
	ok := weft.Chain(weft.Delay[string, weft.Unit](30*time.Millisecond), func(weft.Unit) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](1)
	})
	fails := weft.Chain(weft.Delay[string, weft.Unit](5*time.Millisecond), func(weft.Unit) weft.Eff[string, int, weft.Unit] {
		return weft.Reject[string, int, weft.Unit]("early failure")
	})
	eff := weft.ZipWithPar(ok, fails, func(a, b int) int { return a + b })
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	e, isLeft := outcome.GetLeft()
	require.True(t, isLeft)
	require.Equal(t, "early failure", e)
}

func TestParCollectsInDeclarationOrder(t *testing.T) {
	mk := func(v int, d time.Duration) weft.Eff[string, int, weft.Unit] {
		return weft.Chain(weft.Delay[string, weft.Unit](d), func(weft.Unit) weft.Eff[string, int, weft.Unit] {
			return weft.Const[string, int, weft.Unit](v)
		})
	}
	list := []weft.Eff[string, int, weft.Unit]{
		mk(1, 30*time.Millisecond),
		mk(2, 5*time.Millisecond),
		mk(3, 15*time.Millisecond),
	}
	outcome, err := weft.UnsafeRunSync(weft.Par(list))
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, v)
}

func TestSeqRunsSequentiallyInOrder(t *testing.T) {
	var order []int
	mk := func(v int) weft.Eff[string, int, weft.Unit] {
		return weft.Try[string, int, weft.Unit](func() int {
			order = append(order, v)
			return v
		})
	}
	eff := weft.Seq([]weft.Eff[string, int, weft.Unit]{mk(1), mk(2), mk(3)})
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, v)
	require.Equal(t, []int{1, 2, 3}, order)
}

// TestOnceRunsExactlyOnce is spec.md §8 property 6: Once, forked
// concurrently into two observers, still only runs its underlying
// effect a single time, and both observers see the same result.
func TestOnceRunsExactlyOnce(t *testing.T) {
	var calls int
	counted := weft.Once(weft.Try[string, int, weft.Unit](func() int {
		calls++
		return calls
	}))
	eff := weft.ZipPar(counted, counted)
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	pair, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, 1, pair.First)
	require.Equal(t, 1, pair.Second)
	require.Equal(t, 1, calls)
}

func TestParNChunksConcurrency(t *testing.T) {
	runs := 0
	mk := func(v int) weft.Eff[string, int, weft.Unit] {
		return weft.Try[string, int, weft.Unit](func() int {
			runs++
			return v
		})
	}
	list := []weft.Eff[string, int, weft.Unit]{mk(1), mk(2), mk(3), mk(4), mk(5)}
	outcome, err := weft.UnsafeRunSync(weft.ParN(2, list))
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3, 4, 5}, v)
	require.Equal(t, 5, runs)
}
