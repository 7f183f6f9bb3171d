// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	weft "github.com/weftrun/weft"
)

func newRaceCommand() *cobra.Command {
	var aMillis, bMillis int
	var virtual bool

	cmd := &cobra.Command{
		Use:   "race",
		Short: "race two delayed effects and report the winner",
		Long: `race runs Race(delay-then-A, delay-then-B): whichever side's delay
elapses first wins and the other is aborted before its own continuation
ever runs. With --virtual the race runs on a VirtualScheduler via
UnsafeRunSync — deterministic and instantaneous, the same mechanism the
runtime's race-determinism tests use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace(time.Duration(aMillis)*time.Millisecond, time.Duration(bMillis)*time.Millisecond, virtual)
		},
	}

	cmd.Flags().IntVar(&aMillis, "a-ms", 50, "delay in milliseconds before side A resolves")
	cmd.Flags().IntVar(&bMillis, "b-ms", 150, "delay in milliseconds before side B resolves")
	cmd.Flags().BoolVar(&virtual, "virtual", false, "run under a deterministic VirtualScheduler instead of real time")

	return cmd
}

func racers(aDelay, bDelay time.Duration) (a, b weft.Eff[string, string, weft.Unit]) {
	a = weft.Chain(weft.Delay[string, weft.Unit](aDelay), func(weft.Unit) weft.Eff[string, string, weft.Unit] {
		return weft.Const[string, string, weft.Unit]("A")
	})
	b = weft.Chain(weft.Delay[string, weft.Unit](bDelay), func(weft.Unit) weft.Eff[string, string, weft.Unit] {
		return weft.Const[string, string, weft.Unit]("B")
	})
	return a, b
}

func runRace(aDelay, bDelay time.Duration, virtual bool) error {
	a, b := racers(aDelay, bDelay)
	raced := weft.Race(a, b)

	if virtual {
		outcome, err := weft.UnsafeRunSync(raced)
		if err != nil {
			return err
		}
		return reportRaceOutcome(outcome, aDelay, bDelay, "virtual, ")
	}

	rt := weft.NewProductionRuntime()
	defer rt.Close(context.Background())

	done := make(chan weft.Either[string, string], 1)
	weft.UnsafeRun(rt, raced, func(e weft.Either[string, string]) { done <- e })

	return reportRaceOutcome(<-done, aDelay, bDelay, "")
}

// reportRaceOutcome prefixes a failed race's error, rejects an empty
// winner as a race outcome that should never happen, formats the
// display line, then prints and returns accordingly.
func reportRaceOutcome(outcome weft.Either[string, string], aDelay, bDelay time.Duration, tag string) error {
	prefixed := weft.MapLeftEither(outcome, func(e string) string { return "race failed: " + e })
	validated := weft.FlatMapEither(prefixed, func(winner string) weft.Either[string, string] {
		if winner == "" {
			return weft.Left[string, string]("race failed: winner was empty")
		}
		return weft.Right[string, string](winner)
	})
	display := weft.MapEither(validated, func(winner string) string {
		return fmt.Sprintf("race (%sa=%s b=%s): winner=%s", tag, aDelay, bDelay, winner)
	})
	return weft.MatchEither(display,
		func(e string) error {
			fmt.Println(e)
			return fmt.Errorf("%s", e)
		},
		func(line string) error {
			fmt.Println(line)
			return nil
		},
	)
}
