// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	weft "github.com/weftrun/weft"
)

// sample is a named weft program runnable from the command line. All
// samples share the error channel string and environment Unit, which is
// all a CLI demo needs — anything richer belongs in a test, not here.
type sample struct {
	name    string
	short   string
	build   func() weft.Eff[string, string, weft.Unit]
}

var samples = map[string]sample{
	"echo": {
		name:  "echo",
		short: "succeeds immediately with a constant string",
		build: func() weft.Eff[string, string, weft.Unit] {
			return weft.Const[string, string, weft.Unit]("hello from weft")
		},
	},
	"fail": {
		name:  "fail",
		short: "fails immediately with a string error",
		build: func() weft.Eff[string, string, weft.Unit] {
			return weft.Reject[string, string, weft.Unit]("sample: deliberate failure")
		},
	},
	"delay": {
		name:  "delay",
		short: "suspends for 200ms via Scheduler.Delay, then succeeds",
		build: func() weft.Eff[string, string, weft.Unit] {
			return weft.Chain(weft.Delay[string, weft.Unit](200*time.Millisecond), func(weft.Unit) weft.Eff[string, string, weft.Unit] {
				return weft.Const[string, string, weft.Unit]("waited 200ms")
			})
		},
	},
	"once": {
		name:  "once",
		short: "runs a counter effect through Once from two forked observers, proving it only fires once",
		build: buildOnceSample,
	},
}

func buildOnceSample() weft.Eff[string, string, weft.Unit] {
	var calls int
	counted := weft.Once(weft.Try[string, int, weft.Unit](func() int {
		calls++
		return calls
	}))
	both := weft.ZipPar(counted, counted)
	return weft.Map(both, func(p weft.Pair[int, int]) string {
		return fmt.Sprintf("both observers saw %d (underlying thunk ran %d time(s))", p.First, calls)
	})
}

func sampleNames() []string {
	names := make([]string, 0, len(samples))
	for n := range samples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <sample>",
		Short: "execute a named sample program and print its Outcome",
		Long: fmt.Sprintf("Execute a named sample program against a production runtime and\nprint its Either outcome. Available samples: %s",
			strings.Join(sampleNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(args[0])
		},
	}
	return cmd
}

func runSample(name string) error {
	s, ok := samples[name]
	if !ok {
		return fmt.Errorf("unknown sample %q (available: %s)", name, strings.Join(sampleNames(), ", "))
	}

	rt := weft.NewProductionRuntime()
	defer rt.Close(context.Background())

	done := make(chan weft.Either[string, string], 1)
	weft.UnsafeRun(rt, s.build(), func(e weft.Either[string, string]) {
		done <- e
	})

	outcome := <-done
	return weft.MatchEither(outcome,
		func(errVal string) error {
			fmt.Printf("%s: failed: %s\n", name, errVal)
			return fmt.Errorf("sample %q failed: %s", name, errVal)
		},
		func(v string) error {
			fmt.Printf("%s: ok: %s\n", name, v)
			return nil
		},
	)
}
