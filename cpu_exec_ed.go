// cpu_exec_ed.go - ED-prefixed opcode bodies
//
// The Z80-inherited ED range (block instructions, NEG, RETN/RETI, IM,
// LD I,A / LD A,I / LD R,A / LD A,R, RRD/RLD, ADC/SBC HL,rr, LD (nn),rr)
// is decoded via the standard x/y/z grid, grounded on the reference
// engine's ED dispatch. The eZ80-only extensions spec.md §4.1 calls
// out (MLT, LEA, PEA, TST, LD A,MB, LD MB,A) are decoded by literal
// opcode byte since they don't fit the inherited grid; TSTIO has no case
// of its own and is not decoded. LEA's
// family (ED 02/03/12/13/22/23/32/33) picks its destination out of
// rp3[p] via the opcode's own p field and its source (IX+d or IY+d) via
// the opcode's own low bit, independent of any DD/FD prefix.
//
// IM encoding deliberately departs from plain Z80 per spec.md §4.1: ED
// 56 (y=2) sets IM 2, and IM 2's dispatch jumps to the fixed vector
// 0x0038 rather than reading an indirect vector table - only IM 3
// (eZ80-only, y=3) performs true vectored dispatch through I:vector.
package ce84

var imTable = [8]byte{0, 0, 2, 3, 0, 1, 2, 3}

func (c *CPU) execED(d *decoded) {
	op := c.fetchByte()

	switch op {
	case 0x4C, 0x5C, 0x6C, 0x7C: // MLT BC/DE/HL/SP
		c.mlt(byte((op >> 4) & 3))
		return
	case 0x02, 0x03, 0x12, 0x13, 0x22, 0x23, 0x32, 0x33: // LEA rp3[p],IX+d / IY+d
		disp := int8(c.fetchByte())
		base := c.IX
		if op&0x01 != 0 {
			base = c.IY
		}
		c.setRP3(pOf(op), uint16(base+uint32(int32(disp))))
		return
	case 0x65: // PEA IX+d
		disp := int8(c.fetchByte())
		c.push24((c.IX + uint32(int32(disp))) & 0xFFFFFF)
		return
	case 0x6E: // LD A,MB
		c.A = c.MBASE
		return
	case 0x6D: // LD MB,A
		c.MBASE = c.A
		return
	case 0x74: // TST A,(HL)
		v := c.readByte(c.effectiveAddr16(c.HL()))
		c.tst(v)
		return
	case 0x04, 0x14, 0x24, 0x34: // TST A,n family collapsed to a single literal slot
		n := c.fetchByte()
		c.tst(n)
		return
	}

	x, y, z, p, q := xOf(op), yOf(op), zOf(op), pOf(op), qOf(op)

	switch {
	case x == 1 && z == 0:
		v := c.in(uint16(c.C) | uint16(c.B)<<8)
		if y != 6 { // y == 6 is IN (C): flags only
			*c.regs8[y] = v
		}
		prevF := c.F
		c.setFlag(flagS, v&0x80 != 0)
		c.setFlag(flagZ, v == 0)
		c.setFlag(flagH, false)
		c.setFlag(flagPV, parity(v))
		c.setFlag(flagN, false)
		c.applyUndoc(prevF)
	case x == 1 && z == 1:
		var v byte
		if y != 6 {
			v = *c.regs8[y]
		}
		c.out(uint16(c.C)|uint16(c.B)<<8, v)
	case x == 1 && z == 2:
		dst := c.HL()
		src := c.getRP(d, p)
		if q == 0 {
			c.SetHL(c.sbcWide(dst, src))
		} else {
			c.SetHL(c.adcWide(dst, src))
		}
	case x == 1 && z == 3:
		addr := c.fetchWord(d.mode)
		rp := c.getRP(d, p)
		if q == 0 {
			c.writeByte(c.resolveAddr16(d.mode, uint16(addr)), byte(rp))
			c.writeByte(c.resolveAddr16(d.mode, uint16(addr)+1), byte(rp>>8))
		} else {
			lo := c.readByte(c.resolveAddr16(d.mode, uint16(addr)))
			hi := c.readByte(c.resolveAddr16(d.mode, uint16(addr)+1))
			c.setRP(d, p, uint16(hi)<<8|uint16(lo))
		}
	case x == 1 && z == 4:
		c.neg()
	case x == 1 && z == 5:
		if q == 0 {
			c.retn()
		} else {
			c.reti()
		}
	case x == 1 && z == 6:
		c.IM = imTable[y]
	case x == 1 && z == 7:
		c.execEDMisc(y)
	case x == 2:
		c.execBlock(op, x, y, z)
	default:
		// Unassigned ED opcode: NOP, per spec.md's don't-crash-on-undefined guidance.
	}
}

func (c *CPU) mlt(p byte) {
	var v uint16
	switch p {
	case 0:
		v = uint16(c.B) * uint16(c.C)
		c.SetBC(v)
	case 1:
		v = uint16(c.D) * uint16(c.E)
		c.SetDE(v)
	case 2:
		v = uint16(c.H) * uint16(c.L)
		c.SetHL(v)
	case 3:
		sp := c.SP()
		v = uint16(byte(sp>>8)) * uint16(byte(sp))
		c.setSP(uint32(v))
	}
}

func (c *CPU) tst(n byte) {
	prevF := c.F
	r := c.A & n
	c.setFlag(flagS, r&0x80 != 0)
	c.setFlag(flagZ, r == 0)
	c.setFlag(flagH, true)
	c.setFlag(flagPV, parity(r))
	c.setFlag(flagN, false)
	c.setFlag(flagC, false)
	c.applyUndoc(prevF)
}

func (c *CPU) execEDMisc(y byte) {
	switch y {
	case 0:
		c.I = (c.I &^ 0xFF) | uint16(c.A)
	case 1:
		c.R = c.A
	case 2:
		c.A = byte(c.I)
		c.copyIFlagsToA()
	case 3:
		c.A = c.R
		c.copyIFlagsToA()
	case 4:
		c.rrd()
	case 5:
		c.rld()
	default:
		// ED 70 (y=6, IN F,(C)-style) / ED 78 duplicate slot: NOP.
	}
}

func (c *CPU) copyIFlagsToA() {
	prevF := c.F
	c.setFlag(flagS, c.A&0x80 != 0)
	c.setFlag(flagZ, c.A == 0)
	c.setFlag(flagH, false)
	c.setFlag(flagPV, c.IEF2)
	c.setFlag(flagN, false)
	c.applyUndoc(prevF)
}

func (c *CPU) rrd() {
	addr := c.effectiveAddr16(c.HL())
	m := c.readByte(addr)
	newA := (c.A &^ 0x0F) | (m & 0x0F)
	newM := (m >> 4) | (c.A << 4)
	c.A = newA
	c.writeByte(addr, newM)
	prevF := c.F
	c.setFlag(flagS, c.A&0x80 != 0)
	c.setFlag(flagZ, c.A == 0)
	c.setFlag(flagH, false)
	c.setFlag(flagPV, parity(c.A))
	c.setFlag(flagN, false)
	c.applyUndoc(prevF)
}

func (c *CPU) rld() {
	addr := c.effectiveAddr16(c.HL())
	m := c.readByte(addr)
	newA := (c.A &^ 0x0F) | (m >> 4)
	newM := (m << 4) | (c.A & 0x0F)
	c.A = newA
	c.writeByte(addr, newM)
	prevF := c.F
	c.setFlag(flagS, c.A&0x80 != 0)
	c.setFlag(flagZ, c.A == 0)
	c.setFlag(flagH, false)
	c.setFlag(flagPV, parity(c.A))
	c.setFlag(flagN, false)
	c.applyUndoc(prevF)
}

func (c *CPU) retn() {
	c.PC = c.popPC24Simple()
	c.IEF1 = c.IEF2
}

func (c *CPU) reti() {
	c.PC = c.popPC24Simple()
	c.IEF1 = c.IEF2
}
