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

func newQueueCommand() *cobra.Command {
	var capacity, items, delayMillis int

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "demonstrate bounded-queue back-pressure",
		Long: `queue offers a batch of items into a Bounded queue concurrently and
drains them one at a time with a delay between takes. Offers beyond the
queue's capacity suspend until a Take frees a slot, visible here as
"offered" lines that print later than their neighbors once the buffer
fills up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueDemo(capacity, items, time.Duration(delayMillis)*time.Millisecond)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 2, "queue capacity")
	cmd.Flags().IntVar(&items, "items", 6, "number of items to offer")
	cmd.Flags().IntVar(&delayMillis, "delay-ms", 50, "delay in milliseconds between takes")

	return cmd
}

func runQueueDemo(capacity, items int, delay time.Duration) error {
	q := weft.Bounded[int](capacity)

	offerEffs := make([]weft.Eff[weft.Never, weft.Unit, weft.Unit], items)
	for i := 0; i < items; i++ {
		i := i
		offerEffs[i] = weft.Chain(q.Offer(i), func(tok weft.QueueToken) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
			return weft.Try[weft.Never, weft.Unit, weft.Unit](func() weft.Unit {
				fmt.Printf("offered %d (token %s)\n", i, tok)
				return weft.Unit{}
			})
		})
	}
	offerAll := weft.Void(weft.Par(offerEffs))

	program := weft.Chain(weft.Fork(offerAll), func(*weft.Fiber) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
		return consumeLoop(q, items, delay)
	})

	rt := weft.NewProductionRuntime()
	defer rt.Close(context.Background())

	done := make(chan weft.Either[weft.Never, weft.Unit], 1)
	weft.UnsafeRun(rt, program, func(e weft.Either[weft.Never, weft.Unit]) { done <- e })
	<-done
	fmt.Printf("drained %d item(s) from a capacity-%d queue\n", items, capacity)
	return nil
}

func consumeLoop(q *weft.Queue[int], n int, delay time.Duration) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
	acc := weft.Const[weft.Never, weft.Unit, weft.Unit](weft.Unit{})
	for i := 0; i < n; i++ {
		acc = weft.Chain(acc, func(weft.Unit) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
			return weft.Chain(q.Take(), func(v int) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
				printed := weft.Try[weft.Never, weft.Unit, weft.Unit](func() weft.Unit {
					fmt.Printf("took %d\n", v)
					return weft.Unit{}
				})
				return weft.Chain(printed, func(weft.Unit) weft.Eff[weft.Never, weft.Unit, weft.Unit] {
					return weft.Delay[weft.Never, weft.Unit](delay)
				})
			})
		})
	}
	return acc
}
