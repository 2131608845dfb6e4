package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zotley-labs/ce84core"
)

func newRunCmd() *cobra.Command {
	var cycles uint64
	var interactive bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <rom.bin>",
		Short: "Load a ROM image and run the core for a fixed cycle budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			emu := ce84.NewEmulator()
			if !quiet {
				emu.SetLogFunc(func(level ce84.LogLevel, msg string) {
					fmt.Fprintf(os.Stderr, "[%s] %s\n", level, msg)
				})
			}
			if err := emu.LoadROM(rom); err != nil {
				return err
			}

			if interactive {
				return runMonitor(emu)
			}

			consumed := emu.RunCycles(cycles)
			fmt.Printf("ran %d cycles\n", consumed)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&cycles, "cycles", 48_000_000, "number of CPU cycles to run")
	cmd.Flags().BoolVar(&interactive, "monitor", false, "drop into the interactive register/memory monitor instead of running headless")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress core diagnostic logging")
	return cmd
}
