package debugscript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// setupAPI installs the `ce84` Lua module table, mirroring
// createMinzModule's shape: a table of closures over the console,
// registered as a single global so scripts read ce84.regs(), ce84.peek,
// and so on.
func (c *Console) setupAPI() {
	module := c.L.NewTable()

	c.L.SetField(module, "regs", c.L.NewFunction(c.luaRegs))
	c.L.SetField(module, "peek", c.L.NewFunction(c.luaPeek))
	c.L.SetField(module, "disasm", c.L.NewFunction(c.luaDisasm))
	c.L.SetField(module, "step", c.L.NewFunction(c.luaStep))
	c.L.SetField(module, "run", c.L.NewFunction(c.luaRun))
	c.L.SetField(module, "break_at", c.L.NewFunction(c.luaBreakAt))
	c.L.SetField(module, "clear_break", c.L.NewFunction(c.luaClearBreak))
	c.L.SetField(module, "watch", c.L.NewFunction(c.luaWatch))
	c.L.SetField(module, "unwatch", c.L.NewFunction(c.luaUnwatch))
	c.L.SetField(module, "key", c.L.NewFunction(c.luaKey))
	c.L.SetField(module, "log", c.L.NewFunction(c.luaLog))

	c.L.SetGlobal("ce84", module)

	// Redirect Lua's print() into the console's output buffer rather
	// than stdout, the same redirection the monitor's own appendOutput
	// gives every command result.
	c.L.SetGlobal("print", c.L.NewFunction(c.luaLog))
}

func (c *Console) luaRegs(L *lua.LState) int {
	cpu := c.emu.CPU
	t := L.NewTable()
	L.SetField(t, "pc", lua.LNumber(cpu.PC))
	L.SetField(t, "sp", lua.LNumber(cpu.SP()))
	L.SetField(t, "af", lua.LNumber(cpu.AF()))
	L.SetField(t, "bc", lua.LNumber(cpu.BC()))
	L.SetField(t, "de", lua.LNumber(cpu.DE()))
	L.SetField(t, "hl", lua.LNumber(cpu.HL()))
	L.SetField(t, "ix", lua.LNumber(cpu.IX))
	L.SetField(t, "iy", lua.LNumber(cpu.IY))
	L.SetField(t, "im", lua.LNumber(cpu.IM))
	L.SetField(t, "adl", lua.LBool(bool(cpu.ADL)))
	L.SetField(t, "halted", lua.LBool(cpu.Halted))
	L.SetField(t, "cycles", lua.LNumber(cpu.Cycles))
	L.Push(t)
	return 1
}

func (c *Console) luaPeek(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	L.Push(lua.LNumber(c.emu.Bus.PeekByte(addr)))
	return 1
}

func (c *Console) luaDisasm(L *lua.LState) int {
	addr := uint32(L.CheckNumber(1))
	text, length := c.emu.Bus.DisassembleOne(addr)
	L.Push(lua.LString(text))
	L.Push(lua.LNumber(length))
	return 2
}

func (c *Console) luaStep(L *lua.LState) int {
	n := uint64(1)
	if L.GetTop() >= 1 {
		n = uint64(L.CheckNumber(1))
	}
	var consumed uint64
	for i := uint64(0); i < n; i++ {
		consumed += c.emu.RunCycles(1)
	}
	L.Push(lua.LNumber(consumed))
	return 1
}

func (c *Console) luaRun(L *lua.LState) int {
	cycles := uint64(L.CheckNumber(1))
	consumed, hit := c.RunUntil(cycles)
	L.Push(lua.LNumber(consumed))
	L.Push(lua.LBool(hit))
	return 2
}

func (c *Console) luaBreakAt(L *lua.LState) int {
	c.SetBreakpoint(uint32(L.CheckNumber(1)))
	return 0
}

func (c *Console) luaClearBreak(L *lua.LState) int {
	c.ClearBreakpoint(uint32(L.CheckNumber(1)))
	return 0
}

func (c *Console) luaWatch(L *lua.LState) int {
	c.watches[uint32(L.CheckNumber(1))] = true
	return 0
}

func (c *Console) luaUnwatch(L *lua.LState) int {
	delete(c.watches, uint32(L.CheckNumber(1)))
	return 0
}

func (c *Console) luaKey(L *lua.LState) int {
	row := int(L.CheckNumber(1))
	col := int(L.CheckNumber(2))
	down := true
	if L.GetTop() >= 3 {
		down = bool(L.ToBool(3))
	}
	if err := c.emu.SetKey(row, col, down); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (c *Console) luaLog(L *lua.LState) int {
	parts := make([]interface{}, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.Get(i).String())
	}
	c.log(fmt.Sprintln(parts...))
	return 0
}
