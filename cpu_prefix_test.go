package ce84

import "testing"

func TestDDPrefixIndexedLoad(t *testing.T) {
	c := newTestCPU(t)
	c.IX = RAMBase + 0x0100
	c.bus.mem.RAM[0x0105] = 0x99 // IX+5

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xDD, 0x7E, 0x05) // LD A,(IX+5)
	c.Step()

	if c.A != 0x99 {
		t.Fatalf("A = %02X, want 99", c.A)
	}
	if c.PC != RAMBase+0x2003 {
		t.Fatalf("PC = %06X, want %06X after a 3-byte indexed load", c.PC, RAMBase+0x2003)
	}
}

func TestFDPrefixIndexedStore(t *testing.T) {
	c := newTestCPU(t)
	c.IY = RAMBase + 0x0200
	c.A = 0x5A

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xFD, 0x77, 0x0A) // LD (IY+10),A
	c.Step()

	if c.bus.mem.RAM[0x020A] != 0x5A {
		t.Fatalf("(IY+10) = %02X, want 5A", c.bus.mem.RAM[0x020A])
	}
}

func TestDDCBIndexedSetBitWritesMemory(t *testing.T) {
	c := newTestCPU(t)
	c.IX = RAMBase + 0x0300
	c.bus.mem.RAM[0x0302] = 0x00

	c.PC = RAMBase + 0x2000
	// DD CB 02 C6: SET 0,(IX+2) with z=6 ((HL)-style), result written back
	// to memory only (z==6 has no named-register shadow write).
	loadCode(c, RAMBase+0x2000, 0xDD, 0xCB, 0x02, 0xC6)
	c.Step()

	if c.bus.mem.RAM[0x0302] != 0x01 {
		t.Fatalf("(IX+2) = %02X after SET 0,(IX+2), want 01", c.bus.mem.RAM[0x0302])
	}
}

func TestDDPrefix0x31LoadsIYFromIndexedAddressAndLeavesSPUnchanged(t *testing.T) {
	c := newTestCPU(t)
	c.IX = RAMBase + 0x0100
	c.bus.mem.RAM[0x0105] = 0xEF // low byte of V at IX+5
	c.bus.mem.RAM[0x0106] = 0xBE // high byte of V at IX+6
	c.setSP(0x9999)

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xDD, 0x31, 0x05) // DD 0x31: LD IY,(IX+5)
	c.Step()

	if c.IY != 0xBEEF {
		t.Fatalf("IY = %06X, want 00BEEF", c.IY)
	}
	if c.SP() != 0x9999 {
		t.Fatalf("SP = %06X, want unchanged at 009999", c.SP())
	}
}

func TestFDPrefix0x31LoadsIXFromIndexedAddress(t *testing.T) {
	c := newTestCPU(t)
	c.IY = RAMBase + 0x0200
	c.bus.mem.RAM[0x020A] = 0x34
	c.bus.mem.RAM[0x020B] = 0x12

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xFD, 0x31, 0x0A) // FD 0x31: LD IX,(IY+10)
	c.Step()

	if c.IX != 0x1234 {
		t.Fatalf("IX = %06X, want 001234", c.IX)
	}
}

func TestSuffixModeOverridesLAndILForOneInstruction(t *testing.T) {
	// 0x5B selects L=ADL, IL=ADL for the next instruction while the CPU
	// itself is in Z80 mode; one Step must consume the suffix together with
	// the LD HL,nn it modifies. LD rp,nn reads a 2-byte immediate in either
	// mode, so the trailing 0x00 is left as the next opcode.
	c := newTestCPU(t)
	c.ADL = modeZ80
	c.MBASE = 0xD0
	c.PC = 0x0000 // MBASE:PC16 == RAMBase
	loadCode(c, RAMBase, 0x5B, 0x21, 0x34, 0x12, 0x00) // suffix, LD HL,0x1234
	c.Step()

	if c.HL() != 0x1234 {
		t.Fatalf("HL = %04X, want 1234", c.HL())
	}
}
