// cpu.go - eZ80 register file and mode state
//
// Grounded on the reference engine's CPU_Z80 register layout (cpu_z80.go):
// named 8-bit registers plus shadow set, 16-bit getter/setter pairs, a
// Flag/SetFlag helper pair, and a regs8 [8]*byte lookup table for O(1)
// register-code addressing. Extended here for the eZ80's dual Z80/ADL
// addressing width, MBASE, and the one-instruction suffix-opcode temp
// mode spec.md §4.1/§9 call for (represented as a struct the fetcher
// produces and the executor consumes, never as a persistent CPU field).

package ce84

const (
	flagC  = 0x01
	flagN  = 0x02
	flagPV = 0x04
	flagX  = 0x08 // undocumented F3
	flagH  = 0x10
	flagY  = 0x20 // undocumented F5
	flagZ  = 0x40
	flagS  = 0x80
)

// addrMode is the eZ80's address-length / instruction-length mode: Z80
// (16-bit) or ADL (24-bit).
type addrMode bool

const (
	modeZ80 addrMode = false
	modeADL addrMode = true
)

// CPU implements the eZ80 core described in spec.md §4.1. IX, IY, SPL and
// PC hold 24 bits. A, F and the B/C, D/E, H/L halves (and their shadows)
// are single bytes, so BC, DE and HL are 16-bit pairs in both Z80 and ADL
// mode; they have no upper byte.
type CPU struct {
	A, F       byte
	B, C       byte
	D, E       byte
	H, L       byte
	A2, F2     byte
	B2, C2     byte
	D2, E2     byte
	H2, L2     byte

	IX, IY uint32 // 24-bit
	SPL    uint32 // 24-bit stack pointer (ADL mode)
	SPS    uint16 // 16-bit stack pointer (Z80 mode)
	PC     uint32 // 24-bit

	I     uint16
	R     byte
	MBASE byte

	ADL  addrMode // current address-length mode
	MADL bool     // mixed-mode-allowed flag

	IEF1, IEF2 bool
	IM         byte // 0..3

	Halted     bool
	pendingEI  int // instructions until EI takes effect; 0 = not pending

	irqLine  bool
	irqVector byte

	Cycles uint64

	bus *Bus

	// regs8 maps the 3-bit register code (B,C,D,E,H,L,(HL),A) to a
	// pointer for direct (non-indexed) addressing, mirroring the
	// reference engine's regs8 lookup table. Index 6, (HL), is handled
	// specially since it addresses memory, not a register.
	regs8 [8]*byte
}

func NewCPU(bus *Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

func (c *CPU) Reset() {
	c.A, c.F = 0, 0
	c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0
	c.A2, c.F2 = 0, 0
	c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0
	c.IX, c.IY = 0, 0
	c.SPL, c.SPS = 0, 0
	c.PC = 0
	c.I, c.R, c.MBASE = 0, 0, 0
	c.ADL = modeADL
	c.MADL = false
	c.IEF1, c.IEF2 = false, false
	c.IM = 0
	c.Halted = false
	c.pendingEI = 0
	c.irqLine = false
	c.irqVector = 0xFF
	c.Cycles = 0
	c.regs8 = [8]*byte{&c.B, &c.C, &c.D, &c.E, &c.H, &c.L, nil, &c.A}
}

func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }

func (c *CPU) SetBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *CPU) SetDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *CPU) SetHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }
func (c *CPU) SetAF(v uint16) { c.A, c.F = byte(v>>8), byte(v) }

func (c *CPU) Flag(mask byte) bool      { return c.F&mask != 0 }
func (c *CPU) setFlag(mask byte, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

// SP returns the effective stack pointer for the current L mode, per
// spec.md §3: SPL (24-bit) in ADL mode, SPS (16-bit) in Z80 mode.
func (c *CPU) SP() uint32 {
	if c.ADL {
		return c.SPL
	}
	return uint32(c.SPS)
}

func (c *CPU) setSP(v uint32) {
	if c.ADL {
		c.SPL = v & 0xFFFFFF
	} else {
		c.SPS = uint16(v)
	}
}

// effectiveAddr16 applies the Z80-mode MBASE rule from spec.md §3 and
// returns MBASE:addr16. It does so whatever the current mode;
// resolveAddr16 is the variant that leaves out MBASE when L is ADL.
func (c *CPU) effectiveAddr16(addr16 uint16) uint32 {
	return uint32(c.MBASE)<<16 | uint32(addr16)
}

// resolvedMode captures the (L, IL) pair that governs one instruction:
// default (ADL, ADL), or overridden for exactly one instruction by a
// suffix opcode (spec.md §4.1). Never stored persistently on CPU.
type resolvedMode struct {
	L  addrMode // governs effective addresses, register-pair width, stack width
	IL addrMode // governs JP/CALL immediate operand width
}

func (c *CPU) defaultMode() resolvedMode {
	return resolvedMode{L: c.ADL, IL: c.ADL}
}

// suffixMode maps the four suffix-opcode bytes to their (L, IL) override,
// per spec.md §4.1.
func suffixMode(b byte) (resolvedMode, bool) {
	switch b {
	case 0x40:
		return resolvedMode{L: modeZ80, IL: modeZ80}, true
	case 0x49:
		return resolvedMode{L: modeZ80, IL: modeADL}, true
	case 0x52:
		return resolvedMode{L: modeADL, IL: modeZ80}, true
	case 0x5B:
		return resolvedMode{L: modeADL, IL: modeADL}, true
	}
	return resolvedMode{}, false
}

func (c *CPU) fetchByte() byte {
	v, cyc := c.bus.ReadByte(c.effectivePC())
	c.Cycles += uint64(cyc)
	c.PC = (c.PC + 1) & pcMask(c.ADL)
	c.bumpR()
	return v
}

func pcMask(m addrMode) uint32 {
	if m {
		return 0xFFFFFF
	}
	return 0xFFFF
}

func (c *CPU) effectivePC() uint32 {
	if c.ADL {
		return c.PC & 0xFFFFFF
	}
	return c.effectiveAddr16(uint16(c.PC))
}

func (c *CPU) bumpR() {
	c.R = (c.R & 0x80) | ((c.R + 1) & 0x7F)
}

func (c *CPU) readByte(addr uint32) byte {
	v, cyc := c.bus.ReadByte(addr)
	c.Cycles += uint64(cyc)
	return v
}

func (c *CPU) writeByte(addr uint32, v byte) {
	cyc := c.bus.WriteByte(addr, v)
	c.Cycles += uint64(cyc)
}

func (c *CPU) in(port uint16) byte {
	v := c.bus.In(port)
	c.Cycles += uint64(waitPortMin)
	return v
}

func (c *CPU) out(port uint16, v byte) {
	c.bus.Out(port, v)
	c.Cycles += uint64(waitPortMax)
}

// ExAF exchanges AF with the shadow set.
func (c *CPU) ExAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
}

// Exx exchanges BC/DE/HL with the shadow set.
func (c *CPU) Exx() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
}
