// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft_test

import (
	"errors"
	"testing"

	weft "github.com/weftrun/weft"
)

func runSync[A any](t *testing.T, eff weft.Eff[string, A, weft.Unit]) (A, error) {
	t.Helper()
	outcome, err := weft.UnsafeRunSync(eff)
	if err != nil {
		var zero A
		return zero, err
	}
	if v, ok := outcome.GetRight(); ok {
		return v, nil
	}
	e, _ := outcome.GetLeft()
	return *new(A), errors.New(e)
}

func TestConstResolves(t *testing.T) {
	got, err := runSync(t, weft.Const[string, int, weft.Unit](42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestRejectFails(t *testing.T) {
	_, err := runSync(t, weft.Reject[string, int, weft.Unit]("boom"))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("got %v, want error %q", err, "boom")
	}
}

func TestMapTransformsSuccess(t *testing.T) {
	eff := weft.Map(weft.Const[string, int, weft.Unit](3), func(x int) int { return x * x })
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
}

func TestMapRecoversPanicIntoErrorChannel(t *testing.T) {
	eff := weft.Map(weft.Const[string, int, weft.Unit](1), func(int) int {
		panic("string")
	})
	_, err := runSync(t, eff)
	if err == nil || err.Error() != "string" {
		t.Fatalf("got %v, want error %q", err, "string")
	}
}

func TestChainSequencesAndThreadsValue(t *testing.T) {
	eff := weft.Chain(weft.Const[string, int, weft.Unit](10), func(x int) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](x + 1)
	})
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}

func TestChainShortCircuitsOnFailure(t *testing.T) {
	called := false
	eff := weft.Chain(weft.Reject[string, int, weft.Unit]("x"), func(int) weft.Eff[string, int, weft.Unit] {
		called = true
		return weft.Const[string, int, weft.Unit](0)
	})
	_, err := runSync(t, eff)
	if err == nil || err.Error() != "x" {
		t.Fatalf("got %v, want error %q", err, "x")
	}
	if called {
		t.Fatalf("continuation ran after a failed Chain source")
	}
}

// Monad-law table: left identity, right identity, associativity — the
// three laws spec.md §8 property 1 requires Chain to satisfy.
func TestChainMonadLaws(t *testing.T) {
	f := func(x int) weft.Eff[string, int, weft.Unit] { return weft.Const[string, int, weft.Unit](x + 1) }
	g := func(x int) weft.Eff[string, int, weft.Unit] { return weft.Const[string, int, weft.Unit](x * 2) }

	tests := []struct {
		name string
		lhs  weft.Eff[string, int, weft.Unit]
		rhs  weft.Eff[string, int, weft.Unit]
	}{
		{
			name: "left identity",
			lhs:  weft.Chain(weft.Const[string, int, weft.Unit](5), f),
			rhs:  f(5),
		},
		{
			name: "right identity",
			lhs:  weft.Chain(weft.Const[string, int, weft.Unit](5), weft.Const[string, int, weft.Unit]),
			rhs:  weft.Const[string, int, weft.Unit](5),
		},
		{
			name: "associativity",
			lhs: weft.Chain(weft.Chain(weft.Const[string, int, weft.Unit](5), f), g),
			rhs: weft.Chain(weft.Const[string, int, weft.Unit](5), func(x int) weft.Eff[string, int, weft.Unit] {
				return weft.Chain(f(x), g)
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs, lerr := runSync(t, tt.lhs)
			rhs, rerr := runSync(t, tt.rhs)
			if lerr != nil || rerr != nil {
				t.Fatalf("unexpected errors: lhs=%v rhs=%v", lerr, rerr)
			}
			if lhs != rhs {
				t.Fatalf("%s: got lhs=%d rhs=%d, want equal", tt.name, lhs, rhs)
			}
		})
	}
}

func TestCatchRecoversFailure(t *testing.T) {
	eff := weft.Catch(weft.Reject[string, int, weft.Unit]("bad"), func(e string) weft.Eff[string, int, weft.Unit] {
		return weft.Const[string, int, weft.Unit](len(e))
	})
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestCatchIsIdentityOnSuccess(t *testing.T) {
	handlerCalled := false
	eff := weft.Catch(weft.Const[string, int, weft.Unit](7), func(string) weft.Eff[string, int, weft.Unit] {
		handlerCalled = true
		return weft.Const[string, int, weft.Unit](-1)
	})
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if handlerCalled {
		t.Fatalf("Catch invoked its handler on a successful source")
	}
}

func TestTryRecoversPanic(t *testing.T) {
	eff := weft.Try[string, int, weft.Unit](func() int {
		panic("kaboom")
	})
	_, err := runSync(t, eff)
	if err == nil || err.Error() != "kaboom" {
		t.Fatalf("got %v, want error %q", err, "kaboom")
	}
}

func TestTrySuccessPassesThrough(t *testing.T) {
	eff := weft.Try[string, int, weft.Unit](func() int { return 99 })
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 99 {
		t.Fatalf("got %d, want 99", got)
	}
}

func TestProvideAccessRoundTrip(t *testing.T) {
	eff := weft.Provide(weft.Access[string, int, int](func(env int) int { return env * 3 }), 4)
	got, err := runSync(t, eff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 12 {
		t.Fatalf("got %d, want 12", got)
	}
}

func TestCallStackSafetyDeepRecursion(t *testing.T) {
	const depth = 200_000
	var build func(n int) weft.Eff[string, int, weft.Unit]
	build = func(n int) weft.Eff[string, int, weft.Unit] {
		if n == 0 {
			return weft.Const[string, int, weft.Unit](0)
		}
		return weft.Call(func() weft.Eff[string, int, weft.Unit] {
			return weft.Chain(build(n-1), func(acc int) weft.Eff[string, int, weft.Unit] {
				return weft.Const[string, int, weft.Unit](acc + 1)
			})
		})
	}
	got, err := runSync(t, weft.Call(func() weft.Eff[string, int, weft.Unit] { return build(depth) }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != depth {
		t.Fatalf("got %d, want %d", got, depth)
	}
}
