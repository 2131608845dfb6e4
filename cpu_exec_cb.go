// cpu_exec_cb.go - CB-prefixed (rotate/shift/BIT/RES/SET) opcode bodies
//
// Grounded on the reference engine's CB-table dispatch shape, extended
// for the DDCB/FDCB form where the target is always (IX+d)/(IY+d) and,
// per spec.md §4.1, a copy of the result is also written back into the
// named 8-bit register for codes 0-5 and 7 (the "LD r,(IX+d) shadow
// write" eZ80/undocumented-Z80 behavior).
package ce84

func (c *CPU) execCB(op byte) {
	x, y, z := xOf(op), yOf(op), zOf(op)
	d := &decoded{idx: idxNone, mode: c.defaultMode()}
	switch x {
	case 0:
		v := c.getReg8(d, z)
		r := c.shift8(shiftOp(y), v)
		c.setReg8(d, z, r)
	case 1:
		v := c.getReg8(d, z)
		c.bit(uint(y), v)
	case 2:
		v := c.getReg8(d, z)
		c.setReg8(d, z, v&^(1<<y))
	case 3:
		v := c.getReg8(d, z)
		c.setReg8(d, z, v|(1<<y))
	}
}

// execIndexedCB executes a DDCB/FDCB instruction: d.disp has already
// been fetched by Step, op is the final opcode byte. The memory operand
// is always (index+disp) regardless of the z field's register code;
// z==6 addresses only memory as in the plain CB form, while z!=6 also
// copies the computed result into that named register, per the eZ80/
// undocumented-Z80 convention spec.md §4.1 calls out.
func (c *CPU) execIndexedCB(d *decoded, op byte) {
	base := c.IX
	if d.idx == idxIY {
		base = c.IY
	}
	addr := (base + uint32(int32(d.disp))) & 0xFFFFFF
	if !c.ADL {
		addr = c.resolveAddr16(d.mode, uint16(int32(uint16(base))+int32(d.disp)))
	}

	x, y, z := xOf(op), yOf(op), zOf(op)
	v := c.readByte(addr)
	var r byte

	switch x {
	case 0:
		r = c.shift8(shiftOp(y), v)
		c.writeByte(addr, r)
	case 1:
		c.bit(uint(y), v)
		return
	case 2:
		r = v &^ (1 << y)
		c.writeByte(addr, r)
	case 3:
		r = v | (1 << y)
		c.writeByte(addr, r)
	}

	if z != 6 {
		*c.regs8[z] = r
	}
}
