package ce84

import "testing"

func TestALUAddSetsCarryAndZero(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0xFF
	c.B = 0x01
	loadCode(c, RAMBase, 0x80) // ADD A,B
	c.Step()

	if c.A != 0x00 {
		t.Fatalf("A = %02X, want 00", c.A)
	}
	if !c.Flag(flagZ) {
		t.Fatal("Z flag not set after 0xFF+0x01")
	}
	if !c.Flag(flagC) {
		t.Fatal("C flag not set after 0xFF+0x01")
	}
	if !c.Flag(flagH) {
		t.Fatal("H flag not set after 0xFF+0x01")
	}
}

func TestALUUndocumentedFlagsPreservedFromPreviousF(t *testing.T) {
	// spec.md's eZ80 deviation from plain Z80: F3/F5 come from the
	// previous F value, not from the result byte.
	c := newTestCPU(t)
	c.F = flagX | flagY
	c.A = 0x01
	c.B = 0x01
	loadCode(c, RAMBase, 0x80) // ADD A,B -> result 0x02, bits 3/5 both clear in result
	c.Step()

	if c.F&flagX == 0 || c.F&flagY == 0 {
		t.Fatalf("F3/F5 should be preserved from previous F, got F=%02X", c.F)
	}
}

func TestALUSubtractSetsNFlag(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x10
	c.B = 0x01
	loadCode(c, RAMBase, 0x90) // SUB B
	c.Step()

	if !c.Flag(flagN) {
		t.Fatal("N flag not set after SUB")
	}
	if c.A != 0x0F {
		t.Fatalf("A = %02X, want 0F", c.A)
	}
}

func TestIncDecDoNotAffectCarry(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0xFF
	c.setFlag(flagC, true)
	loadCode(c, RAMBase, 0x3C) // INC A
	c.Step()

	if !c.Flag(flagC) {
		t.Fatal("INC must not clear a previously set carry flag")
	}
	if c.A != 0x00 {
		t.Fatalf("A = %02X, want 00", c.A)
	}
	if !c.Flag(flagZ) {
		t.Fatal("Z flag not set after INC wrap to zero")
	}
}
