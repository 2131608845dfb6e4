package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/zotley-labs/ce84core"
)

// runMonitor drives an interactive register/memory/disassembly console
// over the emulator, grounded on the reference engine's terminal_host.go
// raw-mode setup: put the terminal into raw mode for the duration of the
// session so Ctrl-C and friends reach us as plain bytes, but read whole
// lines rather than polling single bytes, since the monitor's commands
// are words, not keystrokes.
func runMonitor(emu *ce84.Emulator) error {
	fd := int(os.Stdin.Fd())
	var oldState *term.State
	if term.IsTerminal(fd) {
		st, err := term.MakeRaw(fd)
		if err == nil {
			oldState = st
			defer term.Restore(fd, oldState)
		}
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stdout, "ce84 monitor. type 'help' for commands.\r\n")

	for {
		fmt.Fprint(os.Stdout, "(ce84) ")
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprint(os.Stdout, "\r\n")
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if done := dispatchMonitorCmd(emu, fields); done {
			return nil
		}
	}
}

// readLine reads a single newline-terminated line, translating the CR
// that raw mode delivers on Enter into a proper line terminator and
// echoing DEL as a destructive backspace, mirroring terminal_host.go's
// CR-to-LF and DEL-to-BS byte translation.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\r', '\n':
			fmt.Fprint(os.Stdout, "\r\n")
			return string(buf), nil
		case 0x7f, 0x08: // DEL or BS
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				fmt.Fprint(os.Stdout, "\b \b")
			}
		case 0x03: // Ctrl-C
			return "", fmt.Errorf("interrupted")
		default:
			buf = append(buf, b)
			fmt.Fprintf(os.Stdout, "%c", b)
		}
	}
}

func dispatchMonitorCmd(emu *ce84.Emulator, fields []string) (quit bool) {
	switch fields[0] {
	case "help", "h", "?":
		printMonitorHelp()
	case "quit", "q", "exit":
		return true
	case "regs", "r":
		printRegs(emu.CPU)
	case "step", "s":
		n := monitorArgUint(fields, 1, 1)
		for i := uint64(0); i < n; i++ {
			emu.RunCycles(1)
		}
		printRegs(emu.CPU)
	case "run":
		n := monitorArgUint(fields, 1, 1_000_000)
		consumed := emu.RunCycles(n)
		fmt.Fprintf(os.Stdout, "ran %d cycles\r\n", consumed)
	case "mem", "m":
		addr := uint32(monitorArgUint(fields, 1, uint64(emu.CPU.PC)))
		length := monitorArgUint(fields, 2, 64)
		printMemory(emu.Bus, addr, int(length))
	case "disasm", "d", "u":
		addr := uint32(monitorArgUint(fields, 1, uint64(emu.CPU.PC)))
		count := monitorArgUint(fields, 2, 10)
		printDisasm(emu.Bus, addr, int(count))
	case "key", "k":
		if len(fields) < 3 {
			fmt.Fprint(os.Stdout, "usage: key <row> <col>\r\n")
			return false
		}
		row, _ := strconv.Atoi(fields[1])
		col, _ := strconv.Atoi(fields[2])
		if err := emu.SetKey(row, col, true); err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\r\n", err)
		}
	default:
		fmt.Fprintf(os.Stdout, "unknown command %q, try 'help'\r\n", fields[0])
	}
	return false
}

func printMonitorHelp() {
	lines := []string{
		"regs (r)               print CPU registers",
		"step (s) [n]           single-step n instructions (default 1)",
		"run [cycles]           run a cycle budget headless (default 1000000)",
		"mem (m) [addr] [len]   dump memory starting at addr (default PC, 64 bytes)",
		"disasm (d) [addr] [n]  disassemble n instructions from addr (default PC, 10)",
		"key (k) <row> <col>    press a keypad key (it stays held down)",
		"quit (q)               leave the monitor",
	}
	for _, l := range lines {
		fmt.Fprintf(os.Stdout, "  %s\r\n", l)
	}
}

func monitorArgUint(fields []string, idx int, def uint64) uint64 {
	if idx >= len(fields) {
		return def
	}
	v, err := strconv.ParseUint(fields[idx], 0, 64)
	if err != nil {
		return def
	}
	return v
}

func printRegs(c *ce84.CPU) {
	mode := "Z80"
	if c.ADL {
		mode = "ADL"
	}
	fmt.Fprintf(os.Stdout, "PC=%06X SP=%06X mode=%s IM=%d IEF1=%v MBASE=%02X\r\n",
		c.PC, c.SP(), mode, c.IM, c.IEF1, c.MBASE)
	fmt.Fprintf(os.Stdout, "AF=%04X BC=%04X DE=%04X HL=%04X IX=%06X IY=%06X\r\n",
		c.AF(), c.BC(), c.DE(), c.HL(), c.IX, c.IY)
	fmt.Fprintf(os.Stdout, "cycles=%d halted=%v\r\n", c.Cycles, c.Halted)
}

func printMemory(bus *ce84.Bus, addr uint32, length int) {
	for i := 0; i < length; i += 16 {
		fmt.Fprintf(os.Stdout, "%06X: ", addr+uint32(i))
		for j := 0; j < 16 && i+j < length; j++ {
			fmt.Fprintf(os.Stdout, "%02X ", bus.PeekByte(addr+uint32(i+j)))
		}
		fmt.Fprint(os.Stdout, "\r\n")
	}
}

func printDisasm(bus *ce84.Bus, addr uint32, count int) {
	for i := 0; i < count; i++ {
		text, length := bus.DisassembleOne(addr)
		fmt.Fprintf(os.Stdout, "%06X: %s\r\n", addr, text)
		if length <= 0 {
			length = 1
		}
		addr += uint32(length)
	}
}
