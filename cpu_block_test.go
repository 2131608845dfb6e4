package ce84

import "testing"

func TestBlockLDIRCopiesAndDecrementsBC(t *testing.T) {
	c := newTestCPU(t)
	c.MBASE = 0xD0 // block ops address via MBASE:HL16, so this targets RAMBase
	c.SetHL(0x0000)
	c.SetDE(0x1000)
	c.SetBC(0x0003)
	c.bus.mem.RAM[0x0000] = 0xAA
	c.bus.mem.RAM[0x0001] = 0xBB
	c.bus.mem.RAM[0x0002] = 0xCC

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xED, 0xB0) // LDIR
	c.Step()

	if c.bus.mem.RAM[0x1000] != 0xAA || c.bus.mem.RAM[0x1001] != 0xBB || c.bus.mem.RAM[0x1002] != 0xCC {
		t.Fatalf("LDIR did not copy all three bytes: %02X %02X %02X",
			c.bus.mem.RAM[0x1000], c.bus.mem.RAM[0x1001], c.bus.mem.RAM[0x1002])
	}
	if c.BC() != 0 {
		t.Fatalf("BC = %04X after LDIR, want 0", c.BC())
	}
	if c.Flag(flagPV) {
		t.Fatal("PV must be clear once BC reaches zero")
	}
}

func TestBlockCPIRStopsOnMatch(t *testing.T) {
	c := newTestCPU(t)
	c.MBASE = 0xD0
	c.SetHL(0x0000)
	c.SetBC(0x0005)
	c.A = 0x42
	c.bus.mem.RAM[0x0000] = 0x01
	c.bus.mem.RAM[0x0001] = 0x42
	c.bus.mem.RAM[0x0002] = 0x99

	c.PC = RAMBase + 0x2000
	loadCode(c, RAMBase+0x2000, 0xED, 0xB1) // CPIR
	c.Step()

	if c.HL() != 0x0002 {
		t.Fatalf("HL = %04X, want 0002 (stopped right after the match)", c.HL())
	}
	if !c.Flag(flagZ) {
		t.Fatal("Z flag should be set once a matching byte is found")
	}
	if c.BC() != 3 {
		t.Fatalf("BC = %04X, want 3 (two comparisons consumed)", c.BC())
	}
}
