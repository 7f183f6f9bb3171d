// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	weft "github.com/weftrun/weft"
)

func countingResource() (weft.Managed[string, int, weft.Unit], *int) {
	count := 0
	acquire := weft.Try[string, int, weft.Unit](func() int {
		count++
		return count
	})
	release := func(int) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
		return weft.Try[weft.Never, weft.Unit, weft.Unit](func() weft.Unit {
			count--
			return weft.Unit{}
		})
	}
	return weft.Make(acquire, release), &count
}

// TestManagedUseSuccess is S3-shaped: release runs exactly once after a
// successful use, restoring the acquire/release balance to zero.
func TestManagedUseSuccess(t *testing.T) {
	m, count := countingResource()
	eff := weft.Use(m, func(v int) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](v * 10)
	})
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, 10, v)
	require.Equal(t, 0, *count)
}

// TestManagedUseFailure is spec.md S4: release still runs exactly once
// when the body rejects, and the rejection is what the caller observes.
func TestManagedUseFailure(t *testing.T) {
	m, count := countingResource()
	eff := weft.Use(m, func(int) weft.Eff[string, int, weft.Unit] {
		return weft.Reject[string, int, weft.Unit]("x")
	})
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	e, ok := outcome.GetLeft()
	require.True(t, ok)
	require.Equal(t, "x", e)
	require.Equal(t, 0, *count)
}

// TestManagedUseAbort is spec.md S5: aborting the fiber running Use
// still triggers exactly one release.
func TestManagedUseAbort(t *testing.T) {
	m, count := countingResource()
	vs := weft.NewVirtualScheduler()
	rt := weft.NewRuntime(vs)

	eff := weft.Use(m, func(int) weft.Eff[string, weft.Unit, weft.Unit] {
		return weft.Delay[string, weft.Unit](1000 * time.Millisecond)
	})

	fb := weft.UnsafeRun(rt, eff, nil)
	vs.Advance(500 * time.Millisecond)
	require.Equal(t, 1, *count)
	fb.Abort()
	vs.Run()
	require.Equal(t, 0, *count)
}

// TestManagedZipReleasesAllInParallel is spec.md S6-shaped: zipping N
// managed resources acquires and releases all of them, leaving the net
// acquire/release count at zero.
func TestManagedZipReleasesAllInParallel(t *testing.T) {
	m1, c1 := countingResource()
	m2, c2 := countingResource()
	m3, c3 := countingResource()

	zipped := weft.ManagedZip([]weft.Managed[string, int, weft.Unit]{m1, m2, m3})
	eff := weft.Use(zipped, func(vs []int) weft.Eff[string, int, weft.Unit] {
		sum := 0
		for _, v := range vs {
			sum += v
		}
		return weft.Const[string, int, weft.Unit](sum)
	})
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, 0, *c1)
	require.Equal(t, 0, *c2)
	require.Equal(t, 0, *c3)
}

// TestManagedMapTransformsValueKeepsRelease exercises ManagedMap: the
// acquired value changes shape but release still runs exactly once.
func TestManagedMapTransformsValueKeepsRelease(t *testing.T) {
	m, count := countingResource()
	mapped := weft.ManagedMap(m, func(v int) string { return fmt.Sprintf("#%d", v) })

	eff := weft.Use(mapped, func(v string) weft.Eff[string, string, weft.Unit] {
		return weft.Const[string, string, weft.Unit](v)
	})
	outcome, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	v, ok := outcome.GetRight()
	require.True(t, ok)
	require.Equal(t, "#1", v)
	require.Equal(t, 0, *count)
}

func TestManagedChainComposesReleaseLIFO(t *testing.T) {
	var order []string
	mk := func(name string) weft.Managed[string, string, weft.Unit] {
		return weft.Make(
			weft.Const[string, string, weft.Unit](name),
			func(string) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
				return weft.Try[weft.Never, weft.Unit, weft.Unit](func() weft.Unit {
					order = append(order, name)
					return weft.Unit{}
				})
			},
		)
	}
	outer := mk("outer")
	chained := weft.ManagedChain(outer, func(string) weft.Managed[string, string, weft.Unit] { return mk("inner") })

	eff := weft.Use(chained, func(v string) weft.Eff[string, string, weft.Unit] {
		return weft.Const[string, string, weft.Unit](v)
	})
	_, err := weft.UnsafeRunSync(eff)
	require.NoError(t, err)
	require.Equal(t, []string{"inner", "outer"}, order)
}
