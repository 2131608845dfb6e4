// cpu_decode.go - opcode fetch/decode and the eZ80 prefix chain
//
// Grounded on the reference engine's opcode dispatch shape (function
// tables indexed by raw opcode byte, x/y/z bitfield decomposition
// performed ad hoc per instruction group) but restructured around a
// single Step() that walks the eZ80 prefix chain spec.md §4.1 describes:
// zero or more of {DD, FD, ED, suffix byte} followed by a base or CB
// opcode, with DDCB/FDCB inserting their displacement byte before the
// final opcode byte rather than after.

package ce84

// indexKind selects which 24-bit index register (if any) a prefixed
// instruction addresses, and whether (HL) should be read as a register
// or as (IX+d)/(IY+d).
type indexKind int

const (
	idxNone indexKind = iota
	idxIX
	idxIY
)

// decoded carries everything Step's fetch phase determines before
// execution: the prefix chain's effect on register selection and
// addressing mode, plus the displacement byte DDCB/FDCB instructions
// carry ahead of their final opcode.
type decoded struct {
	idx  indexKind
	mode resolvedMode
	op   byte
	disp int8 // valid only when idx != idxNone and a (index+d) access occurs
}

// Step executes exactly one instruction (including its full prefix
// chain) and returns the number of bus cycles it consumed, per spec.md
// §4.1/§4.3's instruction-boundary contract with the scheduler.
func (c *CPU) Step() int {
	startCycles := c.Cycles

	if c.Halted {
		c.fetchByte() // HALT re-fetches its own opcode every tick, per spec.md §4.1
		c.PC = (c.PC - 1) & pcMask(c.ADL)
		c.R = (c.R & 0x80) | ((c.R - 1) & 0x7F)
		c.Cycles += 2
		c.servicePendingEI()
		c.maybeAcceptInterrupt()
		return int(c.Cycles - startCycles)
	}

	d := decoded{idx: idxNone, mode: c.defaultMode()}

	for {
		b := c.fetchByte()
		switch b {
		case 0xDD:
			d.idx = idxIX
			continue
		case 0xFD:
			d.idx = idxIY
			continue
		case 0xED:
			c.execED(&d)
			c.servicePendingEI()
			c.maybeAcceptInterrupt()
			return int(c.Cycles - startCycles)
		case 0xCB:
			if d.idx != idxNone {
				// DDCB/FDCB: displacement byte precedes the final opcode.
				d.disp = int8(c.fetchByte())
				op := c.fetchByte()
				c.execIndexedCB(&d, op)
			} else {
				op := c.fetchByte()
				c.execCB(op)
			}
			c.servicePendingEI()
			c.maybeAcceptInterrupt()
			return int(c.Cycles - startCycles)
		}
		if rm, ok := suffixMode(b); ok {
			d.mode = rm
			continue
		}
		d.op = b
		c.execBase(&d)
		break
	}

	c.servicePendingEI()
	c.maybeAcceptInterrupt()
	return int(c.Cycles - startCycles)
}

func xOf(op byte) byte { return op >> 6 }
func yOf(op byte) byte { return (op >> 3) & 7 }
func zOf(op byte) byte { return op & 7 }
func pOf(op byte) byte { return (op >> 4) & 3 }
func qOf(op byte) byte { return (op >> 3) & 1 }

// getIndex8/setIndex8 mediate IXH/IXL/IYH/IYL access: the bytes of IX
// and IY aren't independently addressable as pointers since they're
// stored packed in a uint32, so getReg8/setReg8 go through these
// instead for index-register 8-bit operands.
func (c *CPU) getIndex8(idx indexKind, hi bool) byte {
	v := c.IX
	if idx == idxIY {
		v = c.IY
	}
	if hi {
		return byte(v >> 8)
	}
	return byte(v)
}

func (c *CPU) setIndex8(idx indexKind, hi bool, val byte) {
	if idx == idxIX {
		if hi {
			c.IX = (c.IX &^ 0xFF00) | uint32(val)<<8
		} else {
			c.IX = (c.IX &^ 0xFF) | uint32(val)
		}
	} else {
		if hi {
			c.IY = (c.IY &^ 0xFF00) | uint32(val)<<8
		} else {
			c.IY = (c.IY &^ 0xFF) | uint32(val)
		}
	}
}

// getReg8/setReg8 read/write an 8-bit operand by 3-bit code, handling
// (HL)/(IX+d)/(IY+d) memory indirection and IXH/IXL/IYH/IYL
// substitution uniformly so opcode bodies never branch on idx
// themselves.
func (c *CPU) getReg8(d *decoded, code byte) byte {
	if code == 6 {
		return c.readByte(c.hlAddr(d))
	}
	if d.idx != idxNone && (code == 4 || code == 5) {
		return c.getIndex8(d.idx, code == 4)
	}
	return *c.regs8[code]
}

func (c *CPU) setReg8(d *decoded, code byte, v byte) {
	if code == 6 {
		c.writeByte(c.hlAddr(d), v)
		return
	}
	if d.idx != idxNone && (code == 4 || code == 5) {
		c.setIndex8(d.idx, code == 4, v)
		return
	}
	*c.regs8[code] = v
}

// hlAddr resolves the effective address for (HL)/(IX+d)/(IY+d),
// fetching the displacement byte for indexed forms per the standard
// Z80/eZ80 convention: the displacement is the operand byte following
// the opcode for non-CB indexed instructions.
func (c *CPU) hlAddr(d *decoded) uint32 {
	base := c.HL()
	if d.idx == idxIX {
		base = uint16(c.IX)
		if d.mode.L {
			return (c.IX + uint32(int32(int8(c.fetchByte())))) & 0xFFFFFF
		}
	} else if d.idx == idxIY {
		base = uint16(c.IY)
		if d.mode.L {
			return (c.IY + uint32(int32(int8(c.fetchByte())))) & 0xFFFFFF
		}
	}
	if d.idx != idxNone {
		disp := int8(c.fetchByte())
		return c.resolveAddr16(d.mode, uint16(int32(base)+int32(disp)))
	}
	return c.resolveAddr16(d.mode, base)
}

// resolveAddr16 applies the L-mode MBASE rule to a 16-bit address
// operand: Z80 L mode bases it off MBASE, ADL L mode uses it directly.
func (c *CPU) resolveAddr16(mode resolvedMode, addr16 uint16) uint32 {
	if mode.L {
		return uint32(addr16)
	}
	return c.effectiveAddr16(addr16)
}

// getRP/setRP resolve a register-pair code (p, 0..3) to BC/DE/HL-or-
// index/SP for the group-1 opcodes (x=0/1 LD/INC/DEC/ADD forms),
// honoring DD/FD substitution of HL with IX/IY.
func (c *CPU) getRP(d *decoded, p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		if d.idx == idxIX {
			return uint16(c.IX)
		} else if d.idx == idxIY {
			return uint16(c.IY)
		}
		return c.HL()
	case 3:
		return uint16(c.SP())
	}
	return 0
}

func (c *CPU) setRP(d *decoded, p byte, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		if d.idx == idxIX {
			c.IX = uint32(v)
		} else if d.idx == idxIY {
			c.IY = uint32(v)
		} else {
			c.SetHL(v)
		}
	case 3:
		c.setSP(uint32(v))
	}
}

// getRP2 resolves a register-pair code for the group-2 opcodes
// (PUSH/POP), where p=3 means AF instead of SP.
func (c *CPU) getRP2(d *decoded, p byte) uint16 {
	if p == 3 {
		return c.AF()
	}
	return c.getRP(d, p)
}

func (c *CPU) setRP2(d *decoded, p byte, v uint16) {
	if p == 3 {
		c.SetAF(v)
		return
	}
	c.setRP(d, p, v)
}

// getRP3/setRP3 resolve a register-pair code to the literal BC/DE/HL/SP
// register, never substituting HL with an active DD/FD index. spec.md
// §4.1 names this table rp3[p] for the eZ80 extensions that address a
// concrete register regardless of prefix: LEA's destination (ED 02-33)
// and the DD/FD x=0 z=7 decode surprise's indexed load/store.
func (c *CPU) getRP3(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	case 3:
		return uint16(c.SP())
	}
	return 0
}

func (c *CPU) setRP3(p byte, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	case 3:
		c.setSP(uint32(v))
	}
}

func (c *CPU) condition(y byte) bool {
	switch y {
	case 0:
		return !c.Flag(flagZ)
	case 1:
		return c.Flag(flagZ)
	case 2:
		return !c.Flag(flagC)
	case 3:
		return c.Flag(flagC)
	case 4:
		return !c.Flag(flagPV)
	case 5:
		return c.Flag(flagPV)
	case 6:
		return !c.Flag(flagS)
	case 7:
		return c.Flag(flagS)
	}
	return false
}

func (c *CPU) fetchWord(mode resolvedMode) uint32 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	v := uint32(hi)<<8 | uint32(lo)
	if mode.IL {
		top := c.fetchByte()
		v |= uint32(top) << 16
	}
	return v
}

// push/pop implement the mixed-mode stack-frame rule from spec.md §4.1:
// in ADL mode, or when a non-ADL instruction explicitly pushes a 24-bit
// value (CALL/RST/interrupt acceptance in ADL), 3 bytes are written and
// an extra (MADL,ADL) suffix byte accompanies CALL/RET/RST frames. Plain
// register PUSH/POP (e.g. PUSH BC) follow the current L mode width.
func (c *CPU) push16(v uint16) {
	sp := c.SP()
	if c.ADL {
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, byte(v>>8))
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, byte(v))
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, 0) // high byte of the 24-bit slot is zero for a 16-bit value
	} else {
		sp = (sp - 1) & 0xFFFF
		c.writeByte(c.effectiveAddr16(uint16(sp)), byte(v>>8))
		sp = (sp - 1) & 0xFFFF
		c.writeByte(c.effectiveAddr16(uint16(sp)), byte(v))
	}
	c.setSP(sp)
}

func (c *CPU) pop16() uint16 {
	sp := c.SP()
	var lo, hi byte
	if c.ADL {
		_ = c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		lo = c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		hi = c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
	} else {
		lo = c.readByte(c.effectiveAddr16(uint16(sp)))
		sp = (sp + 1) & 0xFFFF
		hi = c.readByte(c.effectiveAddr16(uint16(sp)))
		sp = (sp + 1) & 0xFFFF
	}
	c.setSP(sp)
	return uint16(hi)<<8 | uint16(lo)
}

// pushPC24/popPC24 implement the CALL/RET/RST frame. In ADL mode it is
// the full 24-bit PC plus one trailing (MADL,ADL) descriptor byte, per
// spec.md §4.1; in Z80 mode only the low 16 bits of the PC are pushed
// and popped, with no descriptor byte.
func (c *CPU) pushPC24(retAddr uint32) {
	sp := c.SP()
	if c.ADL {
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, c.modeByte())
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, byte(retAddr>>16))
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, byte(retAddr>>8))
		sp = (sp - 1) & 0xFFFFFF
		c.writeByte(sp, byte(retAddr))
	} else {
		sp = (sp - 1) & 0xFFFF
		c.writeByte(c.effectiveAddr16(uint16(sp)), byte(retAddr>>8))
		sp = (sp - 1) & 0xFFFF
		c.writeByte(c.effectiveAddr16(uint16(sp)), byte(retAddr))
	}
	c.setSP(sp)
}

func (c *CPU) popPC24() uint32 {
	sp := c.SP()
	var addr uint32
	if c.ADL {
		lo := c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		mid := c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		hi := c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		modeB := c.readByte(sp)
		sp = (sp + 1) & 0xFFFFFF
		addr = uint32(hi)<<16 | uint32(mid)<<8 | uint32(lo)
		c.applyModeByte(modeB)
	} else {
		lo := c.readByte(c.effectiveAddr16(uint16(sp)))
		sp = (sp + 1) & 0xFFFF
		hi := c.readByte(c.effectiveAddr16(uint16(sp)))
		sp = (sp + 1) & 0xFFFF
		addr = uint32(hi)<<8 | uint32(lo)
	}
	c.setSP(sp)
	return addr
}

// modeByte packs MADL into bit 7 and ADL into bit 0, the encoding
// spec.md §4.1 describes for the descriptor byte trailing a mixed-mode
// CALL/RST frame.
func (c *CPU) modeByte() byte {
	var b byte
	if c.MADL {
		b |= 0x80
	}
	if c.ADL {
		b |= 0x01
	}
	return b
}

func (c *CPU) applyModeByte(b byte) {
	c.MADL = b&0x80 != 0
	c.ADL = b&0x01 != 0
}
