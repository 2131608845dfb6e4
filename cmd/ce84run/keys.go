package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zotley-labs/ce84core"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <rom.bin> <row,col>...",
		Short: "Load a ROM, hold the given row,col keys for 1,000,000 cycles, and print the framebuffer's first and last pixels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := readROM(args[0])
			if err != nil {
				return err
			}
			emu := ce84.NewEmulator()
			if err := emu.LoadROM(rom); err != nil {
				return err
			}
			for _, spec := range args[1:] {
				row, col, err := parseKeySpec(spec)
				if err != nil {
					return err
				}
				if err := emu.SetKey(row, col, true); err != nil {
					return err
				}
			}
			emu.RunCycles(1_000_000)
			fb := emu.FrameBuffer()
			fmt.Printf("framebuffer: %d pixels, first=%08X last=%08X\n", len(fb), fb[0], fb[len(fb)-1])
			return nil
		},
	}
	return cmd
}

func parseKeySpec(spec string) (int, int, error) {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad key spec %q, want row,col", spec)
	}
	row, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return row, col, nil
}
