package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zotley-labs/ce84core"
	"github.com/zotley-labs/ce84core/debugscript"
)

func newScriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script <rom.bin> <script.lua>",
		Short: "Load a ROM and drive it with a Lua debug script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := readROM(args[0])
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			emu := ce84.NewEmulator()
			if err := emu.LoadROM(rom); err != nil {
				return err
			}

			console := debugscript.NewConsole(emu)
			defer console.Close()

			if err := console.Eval(string(src)); err != nil {
				return fmt.Errorf("script error: %w", err)
			}
			for _, line := range console.Output() {
				fmt.Fprint(os.Stdout, line)
				if len(line) == 0 || line[len(line)-1] != '\n' {
					fmt.Fprintln(os.Stdout)
				}
			}
			return nil
		},
	}
	return cmd
}
