// cpu_interrupt.go - IM0/1/2/3 dispatch, EI delay, HALT wake-up
//
// Grounded on the reference engine's interrupt-acceptance sequence
// (cpu_z80.go's handleInterrupt), extended for the eZ80's four
// interrupt modes and the mixed-mode return-address frame spec.md
// §4.1 describes. IM2's vector is fixed at 0x0038 rather than an
// indirect table read - only IM3 performs that indirect lookup - per
// the deliberate eZ80 deviation recorded in cpu_exec_ed.go's imTable.
package ce84

// servicePendingEI advances the one-instruction EI delay described in
// spec.md §4.1: EI doesn't take effect until after the instruction
// following it completes. RETI/RETN restore IEF1 from IEF2 at once and
// do not pass through this delay.
func (c *CPU) servicePendingEI() {
	if c.pendingEI == 0 {
		return
	}
	c.pendingEI--
	if c.pendingEI == 0 {
		c.IEF1, c.IEF2 = true, true
	}
}

// maybeAcceptInterrupt checks the interrupt controller's line and, if
// interrupts are enabled and none are pending acceptance this cycle,
// performs the mode-specific dispatch.
func (c *CPU) maybeAcceptInterrupt() {
	if !c.IEF1 || !c.irqLine {
		return
	}
	c.IEF1, c.IEF2 = false, false
	c.Halted = false

	retAddr := c.PC
	if c.ADL {
		c.pushPC24(retAddr)
	} else {
		c.push16(uint16(retAddr))
	}
	c.Cycles += 2

	switch c.IM {
	case 0:
		// IM 0: the interrupting device is expected to place an
		// instruction on the bus; the CE ASIC always offers RST 0x38.
		c.PC = 0x0038
	case 1:
		c.PC = 0x0038
	case 2:
		c.PC = 0x0038
	case 3:
		vecAddr := uint32(c.I)<<8 | uint32(c.irqVector)
		lo := c.readByte(vecAddr)
		hi := c.readByte(vecAddr + 1)
		c.PC = uint32(hi)<<8 | uint32(lo)
	}
}

// RequestInterrupt is called by the orchestrator each time the
// interrupt controller's aggregate line changes, per spec.md §9's rule
// that peripherals never reach into the CPU directly.
func (c *CPU) RequestInterrupt(active bool, vector byte) {
	c.irqLine = active
	c.irqVector = vector
}
