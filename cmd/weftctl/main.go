// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weftctl",
		Short: "weftctl - demos for the weft effect runtime",
		Long: `weftctl runs small, self-contained weft programs so the runtime's
scheduling, racing and back-pressure behavior can be observed from the
command line instead of only from tests.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newRaceCommand())
	rootCmd.AddCommand(newQueueCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
