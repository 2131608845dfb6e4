// lcd.go - LCD controller: registers, DMA phase scheduling, rendering
//
// Grounded on the reference engine's video_screen_buffer.go framebuffer
// shape (width/height/pixel slice, pull-based query) and the generic
// engine-struct register layout the other "*_engine.go" files use.
// Register offsets and the DMA phase state machine follow spec.md §4.7.

package ce84

const (
	LCDWidth  = 320
	LCDHeight = 240

	lcdPeripheralID = 0x00041110 // PL111-style ID word, nominal value for boot compatibility checks
)

type lcdPhase int

const (
	phaseFrontPorch lcdPhase = iota
	phaseSync
	phaseBackPorch
	phaseActiveVideo
	phaseLineBackUpdate
)

// LCD implements the CE's LCD controller. Rendering happens pull-based on
// FrameBuffer(): the DMA phase state machine only needs to run often
// enough to produce VBLANK interrupts at roughly 60 Hz (spec.md §4.7).
type LCD struct {
	upbase, lpbase   uint32
	upcurr, lpcurr   uint32
	control          uint32
	timing           [4]uint32
	intMask          uint32
	rawStatus        uint32
	palette          [256]uint32

	phase  lcdPhase
	bus    *Bus // for VRAM reads during render
	ic     *InterruptController
	sched  *Scheduler

	fb [LCDWidth * LCDHeight]uint32 // ARGB8888
}

func NewLCD(ic *InterruptController, sched *Scheduler) *LCD {
	l := &LCD{ic: ic, sched: sched}
	l.Reset()
	return l
}

// attachBus lets the orchestrator give the LCD a read path into RAM/VRAM
// after the bus exists (avoids a construction cycle: the bus owns the
// LCD, the LCD needs the bus).
func (l *LCD) attachBus(b *Bus) { l.bus = b }

func (l *LCD) Reset() {
	l.upbase, l.lpbase = 0, 0
	l.upcurr, l.lpcurr = 0, 0
	l.control = 0
	l.timing = [4]uint32{}
	l.intMask = 0
	l.rawStatus = 0
	for i := range l.palette {
		l.palette[i] = 0
	}
	l.phase = phaseFrontPorch
	l.sched.Schedule(EventLCDPhase, ClockLCDPixel, lcdPhaseTicks(l.phase))
}

// lcdPhaseTicks gives each DMA phase a nominal duration, in LCD pixel
// clocks, chosen so one full cycle lands close to 60 Hz — the spec only
// requires VBLANK at "~60 Hz", not phase-accurate timing (spec.md §4.7).
func lcdPhaseTicks(p lcdPhase) uint64 {
	const cycleTicks = 9_216_000 / 60
	switch p {
	case phaseFrontPorch:
		return cycleTicks / 20
	case phaseSync:
		return cycleTicks / 20
	case phaseBackPorch:
		return cycleTicks / 20
	case phaseActiveVideo:
		return cycleTicks * 16 / 20
	case phaseLineBackUpdate:
		return cycleTicks / 20
	}
	return cycleTicks
}

// OnPhaseEvent advances the DMA state machine one phase. VBLANK asserts
// on the front-porch -> sync transition (spec.md §4.7).
func (l *LCD) OnPhaseEvent() {
	next := (l.phase + 1) % 5
	if l.phase == phaseFrontPorch && next == phaseSync {
		l.rawStatus |= 1 // VBLANK bit
		if l.intMask&1 != 0 {
			l.ic.Raise(IntLCD)
		}
	}
	l.phase = next
	l.sched.Schedule(EventLCDPhase, ClockLCDPixel, lcdPhaseTicks(l.phase))
}

func (l *LCD) enabled() bool  { return l.control&0x1 != 0 }
func (l *LCD) powered() bool  { return l.control&0x800 != 0 }
func (l *LCD) bppMode() uint32 { return (l.control >> 1) & 0x7 }

// IsOn reports whether the panel would be lit: enabled and powered.
func (l *LCD) IsOn() bool { return l.enabled() && l.powered() }

// FrameBuffer renders the current VRAM contents (if the panel is on) into
// the ARGB8888 framebuffer and returns it. Only 16bpp RGB565 is rendered
// faithfully per spec.md §4.7; other bpp modes are stubbed to black,
// which is an explicitly allowed simplification for booting.
func (l *LCD) FrameBuffer() []uint32 {
	if !l.IsOn() || l.bus == nil {
		for i := range l.fb {
			l.fb[i] = 0xFF000000
		}
		return l.fb[:]
	}
	if l.bppMode() != 5 { // 5 == 16bpp per the PL111-style control encoding
		for i := range l.fb {
			l.fb[i] = 0xFF000000
		}
		return l.fb[:]
	}
	base := l.upbase
	for y := 0; y < LCDHeight; y++ {
		rowBase := base + uint32(y*LCDWidth*2)
		for x := 0; x < LCDWidth; x++ {
			addr := rowBase + uint32(x*2)
			lo := l.bus.peekByte(addr)
			hi := l.bus.peekByte(addr + 1)
			px := uint16(lo) | uint16(hi)<<8
			l.fb[y*LCDWidth+x] = rgb565ToARGB8888(px)
		}
	}
	return l.fb[:]
}

func rgb565ToARGB8888(px uint16) uint32 {
	r5 := (px >> 11) & 0x1F
	g6 := (px >> 5) & 0x3F
	b5 := px & 0x1F
	r := (uint32(r5)*255 + 15) / 31
	g := (uint32(g6)*255 + 31) / 63
	b := (uint32(b5)*255 + 15) / 31
	return 0xFF000000 | (r << 16) | (g << 8) | b
}

// Register offsets within the LCD MMIO window (spec.md §4.7).
const (
	lcdRegTiming0 = 0x00
	lcdRegTiming1 = 0x04
	lcdRegTiming2 = 0x08
	lcdRegTiming3 = 0x0C
	lcdRegUpbase  = 0x10
	lcdRegLpbase  = 0x14
	lcdRegControl = 0x18
	lcdRegIntMask = 0x1C
	lcdRegRawInt  = 0x20
	lcdRegMaskInt = 0x24
	lcdRegIntClr  = 0x28
	lcdRegUpcurr  = 0x2C
	lcdRegLpcurr  = 0x30
	lcdPalBase    = 0x200
	lcdPalEnd     = 0x3FF
	lcdRegID      = 0xFE0
)

func (l *LCD) ReadPort(offset uint16) byte {
	if offset >= lcdPalBase && offset <= lcdPalEnd {
		idx := (offset - lcdPalBase) / 4
		shift := (offset & 3) * 8
		return byte(l.palette[idx] >> shift)
	}
	reg := offset &^ 3
	shift := (offset & 3) * 8
	return byte(l.readWord(reg) >> shift)
}

func (l *LCD) readWord(reg uint16) uint32 {
	switch reg {
	case lcdRegTiming0:
		return l.timing[0]
	case lcdRegTiming1:
		return l.timing[1]
	case lcdRegTiming2:
		return l.timing[2]
	case lcdRegTiming3:
		return l.timing[3]
	case lcdRegUpbase:
		return l.upbase
	case lcdRegLpbase:
		return l.lpbase
	case lcdRegControl:
		return l.control
	case lcdRegIntMask:
		return l.intMask
	case lcdRegRawInt:
		return l.rawStatus
	case lcdRegMaskInt:
		return l.rawStatus & l.intMask
	case lcdRegUpcurr:
		return l.upcurr
	case lcdRegLpcurr:
		return l.lpcurr
	case lcdRegID:
		return lcdPeripheralID
	}
	return 0
}

func (l *LCD) WritePort(offset uint16, value byte) {
	if offset >= lcdPalBase && offset <= lcdPalEnd {
		idx := (offset - lcdPalBase) / 4
		shift := (offset & 3) * 8
		l.palette[idx] = (l.palette[idx] &^ (0xFF << shift)) | uint32(value)<<shift
		return
	}
	reg := offset &^ 3
	shift := (offset & 3) * 8
	cur := l.readWord(reg)
	cur = (cur &^ (0xFF << shift)) | uint32(value)<<shift
	l.writeWord(reg, cur)
}

func (l *LCD) writeWord(reg uint16, value uint32) {
	switch reg {
	case lcdRegTiming0:
		l.timing[0] = value
	case lcdRegTiming1:
		l.timing[1] = value
	case lcdRegTiming2:
		l.timing[2] = value
	case lcdRegTiming3:
		l.timing[3] = value
	case lcdRegUpbase:
		l.upbase = value &^ 0x7 // 8-byte alignment per spec.md §4.7
	case lcdRegLpbase:
		l.lpbase = value &^ 0x7
	case lcdRegControl:
		l.control = value
	case lcdRegIntMask:
		l.intMask = value
	case lcdRegIntClr:
		l.rawStatus &^= value
	}
}
