// flash.go - AMD/Spansion-style flash command state machine
//
// No direct analogue in the reference engine (its media loading is
// read-only). Built against spec.md §3/§8's flash testable properties in
// the teacher's terse state-machine idiom: a small explicit enum and a
// plain switch, the same shape as debug_monitor.go's MonitorState.

package ce84

const (
	sectorSize     = 0x10000 // 64 KiB sectors, matches the parts used on CE hardware
	eraseReadBusy  = 0x80    // value returned by reads into a sector mid-erase
	eraseBusyReads = 3       // number of post-command reads that observe the busy pattern
)

// flashState has seven states: idle, the two first-unlock cycles, the
// erase sequence's two second-unlock cycles, the wait for the
// sector-erase byte, and the byte-program data write.
type flashState int

const (
	flashIdle flashState = iota
	flashAwaitErase2   // saw 0xAAA<-0xAA
	flashAwaitErase3   // saw 0x555<-0x55, waiting for the command byte
	flashEraseUnlock2  // saw 0xAAA<-0x80, waiting for the second unlock's first write
	flashEraseUnlock3  // saw the second unlock's 0xAAA<-0xAA
	flashErasing       // saw the second unlock's 0x555<-0x55, waiting for addr<-0x30
	flashByteProgram2  // saw 0xAAA<-0xA0, waiting for the data write
)

// flashController recognises the AMD/Spansion unlock-and-command write
// sequence on top of the flash's raw byte array and drives per-sector
// erase/program behaviour. One controller serves the whole 4 MiB flash:
// real CE flash parts decode a single command sequence while tracking
// busy/erased status independently per sector, which is what
// sectorBusyReads tracks.
type flashController struct {
	mem   *Memory
	state flashState

	// sector index -> remaining busy-read count after an erase completes.
	sectorBusyReads map[int]int
}

func newFlashController(mem *Memory) *flashController {
	return &flashController{
		mem:             mem,
		state:           flashIdle,
		sectorBusyReads: make(map[int]int),
	}
}

func (f *flashController) reset() {
	f.state = flashIdle
	f.sectorBusyReads = make(map[int]int)
}

func sectorOf(addr uint32) int {
	return int(addr) / sectorSize
}

// read returns the byte at addr, accounting for the post-erase busy
// window: the first eraseBusyReads reads from a just-erased sector return
// eraseReadBusy regardless of which byte in the sector is addressed.
func (f *flashController) read(addr uint32) byte {
	sec := sectorOf(addr)
	if remaining, busy := f.sectorBusyReads[sec]; busy && remaining > 0 {
		f.sectorBusyReads[sec] = remaining - 1
		if f.sectorBusyReads[sec] == 0 {
			delete(f.sectorBusyReads, sec)
		}
		return eraseReadBusy
	}
	return f.mem.Flash[addr]
}

// write interprets a byte write to flash address space as one step of the
// AMD/Spansion command sequence documented in spec.md §3 and §8:
//
//	0xAAA<-0xAA, 0x555<-0x55, 0xAAA<-0x80,
//	0xAAA<-0xAA, 0x555<-0x55, <sector addr><-0x30   (sector erase)
//
// or, for a byte program:
//
//	0xAAA<-0xAA, 0x555<-0x55, 0xAAA<-0xA0, <addr><-data
//
// Any write that doesn't match the expected next step of whichever
// sequence is in progress aborts back to idle — this mirrors how real
// AMD-compatible parts treat unexpected bus cycles as a command abort
// rather than a silent desync.
func (f *flashController) write(addr uint32, value byte) {
	a := addr & 0xFFF
	switch f.state {
	case flashIdle:
		if a == 0xAAA && value == 0xAA {
			f.state = flashAwaitErase2
		}

	case flashAwaitErase2:
		if a == 0x555 && value == 0x55 {
			f.state = flashAwaitErase3
		} else {
			f.state = flashIdle
		}

	case flashAwaitErase3:
		switch {
		case a == 0xAAA && value == 0x80:
			f.state = flashEraseUnlock2
		case a == 0xAAA && value == 0xA0:
			f.state = flashByteProgram2
		default:
			f.state = flashIdle
		}

	case flashEraseUnlock2:
		if a == 0xAAA && value == 0xAA {
			f.state = flashEraseUnlock3
		} else {
			f.state = flashIdle
		}

	case flashEraseUnlock3:
		if a == 0x555 && value == 0x55 {
			f.state = flashErasing
		} else {
			f.state = flashIdle
		}

	case flashErasing:
		if value == 0x30 {
			f.eraseSector(addr)
		}
		f.state = flashIdle

	case flashByteProgram2:
		f.mem.Flash[addr] &= value // flash programming can only clear bits
		f.state = flashIdle
	}
}

func (f *flashController) eraseSector(addr uint32) {
	sec := sectorOf(addr)
	start := sec * sectorSize
	end := start + sectorSize
	if end > len(f.mem.Flash) {
		end = len(f.mem.Flash)
	}
	for i := start; i < end; i++ {
		f.mem.Flash[i] = 0xFF
	}
	f.sectorBusyReads[sec] = eraseBusyReads
}
