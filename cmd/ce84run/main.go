// Command ce84run drives a ce84 core from the command line: load a ROM,
// run it for a fixed number of cycles or drop into an interactive
// register/memory monitor, and save/load snapshots.
//
// Grounded on the retrieval pack's cobra entry points (z80opt's flat
// rootCmd-plus-subcommand shape) for the CLI layer, and on the
// reference engine's terminal_host.go for the raw-mode monitor loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ce84run",
		Short: "Run and inspect a TI-84 Plus CE emulation core",
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newScriptCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
