package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zotley-labs/ce84core"
)

func newSnapshotCmd() *cobra.Command {
	var cycles uint64

	cmd := &cobra.Command{
		Use:   "snapshot <rom.bin> <out.ce84state>",
		Short: "Run a ROM for a cycle budget and write a save-state file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			emu := ce84.NewEmulator()
			if err := emu.LoadROM(rom); err != nil {
				return err
			}
			emu.RunCycles(cycles)

			data := emu.Save()
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), args[1])
			return nil
		},
	}

	cmd.Flags().Uint64Var(&cycles, "cycles", 48_000_000, "number of CPU cycles to run before snapshotting")
	cmd.AddCommand(newSnapshotInspectCmd())
	return cmd
}

// snapshotSectionNames documents Save's fixed section order, since the
// format itself carries no section names, only lengths.
var snapshotSectionNames = []string{"cpu", "flash", "ram", "bus", "scheduler"}

// newSnapshotInspectCmd prints a save-state's section table (name,
// offset, length) without deserializing any subsystem's internals,
// grounded on the reference engine's debug_snapshot.go "describe this
// saved state" command.
func newSnapshotInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.ce84state>",
		Short: "Print a save-state's section table without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(data) < 8 {
				return fmt.Errorf("file too small to be a snapshot")
			}
			magic := binary.LittleEndian.Uint32(data[0:4])
			version := binary.LittleEndian.Uint32(data[4:8])
			fmt.Printf("magic=%08X version=%d\n", magic, version)

			offset := 8
			for _, name := range snapshotSectionNames {
				if offset+4 > len(data) {
					return fmt.Errorf("truncated before %s section length", name)
				}
				length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
				offset += 4
				fmt.Printf("  %-10s offset=%-8d length=%d\n", name, offset, length)
				offset += length
			}
			if offset != len(data) {
				fmt.Printf("warning: %d trailing bytes after last section\n", len(data)-offset)
			}
			return nil
		},
	}
}
