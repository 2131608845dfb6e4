// Package debugscript implements a Lua-scriptable breakpoint/watch
// console over a ce84 Emulator.
//
// Grounded on the reference engine's debug_monitor.go/debug_commands.go
// command set (breakpoints, write watchpoints, register/memory
// inspection, trace watches) generalized so the same operations are
// driven from embedded Lua rather than a line-oriented command parser,
// the way the retrieval pack's LuaEvaluator (oisee-minz,
// pkg/meta/lua_evaluator.go) exposes a scripting surface over the
// compiler's internals: a `ce84` Lua module table backed by
// L.NewFunction closures over the console.
package debugscript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/zotley-labs/ce84core"
)

// traceEntry records one MMIO or port access, mirroring the shape of
// the teacher's trace-watch log entries in debug_commands.go.
type traceEntry struct {
	addr  uint32
	port  bool
	value byte
	write bool
}

// Console wires an Emulator to an embedded Lua state, offering
// breakpoints (halt RunUntil when the CPU reaches an address), write
// watchpoints (log memory writes at tracked addresses), and an access
// trace ring buffer of the last traceCap accesses. Breakpoints and
// watchpoints are settable from Lua scripts; the trace buffer is
// recorded, but no Lua function reads it.
type Console struct {
	emu *ce84.Emulator
	L   *lua.LState

	breakpoints map[uint32]bool
	watches     map[uint32]bool

	trace    []traceEntry
	traceCap int

	output []string
}

// NewConsole builds a console over emu and installs itself as the
// emulator's IOTracer, the way the teacher's monitor attaches to its
// machine bus for trace-watch support.
func NewConsole(emu *ce84.Emulator) *Console {
	c := &Console{
		emu:         emu,
		L:           lua.NewState(),
		breakpoints: make(map[uint32]bool),
		watches:     make(map[uint32]bool),
		traceCap:    256,
	}
	c.setupAPI()
	emu.SetIOTracer(c)
	return c
}

// Close releases the Lua state and detaches the console from the
// emulator.
func (c *Console) Close() {
	c.emu.SetIOTracer(nil)
	c.L.Close()
}

// TraceMemory implements ce84.IOTracer.
func (c *Console) TraceMemory(addr uint32, value byte, write bool) {
	c.recordTrace(traceEntry{addr: addr, value: value, write: write})
	if write && c.watches[addr] {
		c.log(fmt.Sprintf("watch %06X <- %02X", addr, value))
	}
}

// TracePort implements ce84.IOTracer.
func (c *Console) TracePort(port uint16, value byte, write bool) {
	c.recordTrace(traceEntry{addr: uint32(port), port: true, value: value, write: write})
}

func (c *Console) recordTrace(e traceEntry) {
	c.trace = append(c.trace, e)
	if len(c.trace) > c.traceCap {
		c.trace = c.trace[len(c.trace)-c.traceCap:]
	}
}

func (c *Console) log(msg string) {
	c.output = append(c.output, msg)
}

// Output drains and returns every message logged since the last call,
// mirroring the teacher's appendOutput/scrollback drain pattern.
func (c *Console) Output() []string {
	out := c.output
	c.output = nil
	return out
}

// Eval runs a block of Lua source against the console's API.
func (c *Console) Eval(code string) error {
	return c.L.DoString(code)
}

// SetBreakpoint and ClearBreakpoint manage the breakpoint set directly
// from Go, for callers (like the CLI monitor) that want Go-side control
// alongside Lua scripting.
func (c *Console) SetBreakpoint(addr uint32)   { c.breakpoints[addr] = true }
func (c *Console) ClearBreakpoint(addr uint32) { delete(c.breakpoints, addr) }

// RunUntil steps the emulator one instruction at a time until at least
// maxCycles have been consumed (the last instruction may overshoot),
// stopping early if the CPU's PC lands on a set breakpoint after an
// instruction completes. It
// returns the cycles actually consumed and whether a breakpoint fired.
func (c *Console) RunUntil(maxCycles uint64) (consumed uint64, hitBreak bool) {
	for consumed < maxCycles {
		consumed += c.emu.RunCycles(1)
		if c.breakpoints[c.emu.CPU.PC] {
			return consumed, true
		}
	}
	return consumed, false
}
