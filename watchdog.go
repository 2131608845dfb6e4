// watchdog.go - Watchdog timer (stubbed countdown)
//
// Grounded on the reference engine's engine-struct pattern; register
// layout follows spec.md §4.11. A stubbed countdown is explicitly
// acceptable for booting per spec.md, so Watchdog never actually resets
// the machine — it just tracks the registers faithfully enough that
// firmware feeding sequences (Restart<-0xB9) are observable to a monitor.

package ce84

const (
	watchdogReset       = 0x03EF1480
	watchdogRevision    = 0x00010602
	watchdogFeedPattern = 0xB9
)

const (
	wdRegCounter = 0x00
	wdRegLoad    = 0x04
	wdRegRestart = 0x08
	wdRegControl = 0x0C
	wdRegStatus  = 0x14
	wdRegRev     = 0x1C
)

type Watchdog struct {
	counter uint32
	load    uint32
	control uint32
	status  uint32
}

func NewWatchdog() *Watchdog {
	w := &Watchdog{}
	w.Reset()
	return w
}

func (w *Watchdog) Reset() {
	w.counter = watchdogReset
	w.load = watchdogReset
	w.control = 0
	w.status = 0
}

func (w *Watchdog) ReadPort(offset uint16) byte {
	reg := offset &^ 3
	shift := (offset & 3) * 8
	var word uint32
	switch reg {
	case wdRegCounter:
		word = w.counter
	case wdRegLoad:
		word = w.load
	case wdRegControl:
		word = w.control
	case wdRegStatus:
		word = w.status
	case wdRegRev:
		word = watchdogRevision
	}
	return byte(word >> shift)
}

func (w *Watchdog) WritePort(offset uint16, value byte) {
	reg := offset &^ 3
	shift := (offset & 3) * 8
	switch reg {
	case wdRegLoad:
		w.load = (w.load &^ (0xFF << shift)) | uint32(value)<<shift
	case wdRegRestart:
		if value == watchdogFeedPattern {
			w.counter = w.load
		}
	case wdRegControl:
		w.control = (w.control &^ (0xFF << shift)) | uint32(value)<<shift
	case wdRegStatus:
		w.status &^= uint32(value) << shift // write-1-to-clear
	}
}
