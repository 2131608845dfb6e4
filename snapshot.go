// snapshot.go - binary save-state format
//
// Grounded on the reference engine's own snapshot writer/reader shape
// (serializer.go's section-tagged little-endian format): magic, version,
// then one length-prefixed section per subsystem, so a newer version can
// still reject an old snapshot cleanly rather than misinterpreting bytes.
// Per spec.md §7, every failure mode returns one of the distinguished
// sentinel errors from errors.go rather than a generic error or a panic.
package ce84

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	snapshotMagic   = 0x43453834 // "CE84"
	snapshotVersion = 1
)

// Save serializes the entire emulator state: CPU registers and mode,
// flash, RAM, every peripheral's registers, and the scheduler's pending
// event queue, so RunCycles resumes identically after Load.
func (e *Emulator) Save() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotMagic))
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))

	writeSection(&buf, e.snapshotCPU())
	writeSection(&buf, e.Bus.mem.Flash)
	writeSection(&buf, e.Bus.mem.RAM)
	writeSection(&buf, e.snapshotBus())
	writeSection(&buf, e.snapshotScheduler())

	return buf.Bytes()
}

// Load restores state previously produced by Save. On any structural
// failure the emulator's state is left unchanged and a distinguished
// error (per spec.md §7) is returned.
func (e *Emulator) Load(data []byte) error {
	r := bytes.NewReader(data)
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return ErrSnapshotBufferSmall
	}
	if magic != snapshotMagic {
		return ErrSnapshotMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return ErrSnapshotBufferSmall
	}
	if version != snapshotVersion {
		return ErrSnapshotVersion
	}

	cpuSec, err := readSection(r)
	if err != nil {
		return err
	}
	flashSec, err := readSection(r)
	if err != nil {
		return err
	}
	ramSec, err := readSection(r)
	if err != nil {
		return err
	}
	busSec, err := readSection(r)
	if err != nil {
		return err
	}
	schedSec, err := readSection(r)
	if err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrSnapshotTrailing
	}

	if len(flashSec) != len(e.Bus.mem.Flash) || len(ramSec) != len(e.Bus.mem.RAM) {
		return ErrSnapshotSize
	}

	// Restore into a scratch emulator first, so that a section too short
	// for its subsystem is rejected before this emulator's state changes.
	scratch := NewEmulator()
	if err := scratch.restoreCPU(cpuSec); err != nil {
		return err
	}
	if err := scratch.restoreBus(busSec); err != nil {
		return err
	}
	if err := scratch.restoreScheduler(schedSec); err != nil {
		return err
	}

	if err := e.restoreCPU(cpuSec); err != nil {
		return err
	}
	copy(e.Bus.mem.Flash, flashSec)
	copy(e.Bus.mem.RAM, ramSec)
	if err := e.restoreBus(busSec); err != nil {
		return err
	}
	if err := e.restoreScheduler(schedSec); err != nil {
		return err
	}
	e.loaded = true
	e.lastSpeed = e.Bus.Ctrl.SpeedHz()
	return nil
}

func writeSection(buf *bytes.Buffer, data []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
}

func readSection(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, ErrSnapshotSection
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, ErrSnapshotSection
	}
	return data, nil
}

func (e *Emulator) snapshotCPU() []byte {
	c := e.CPU
	var buf bytes.Buffer
	fields := []byte{c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L,
		c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2,
		c.R, c.MBASE, boolByte(bool(c.ADL)), boolByte(c.MADL),
		boolByte(c.IEF1), boolByte(c.IEF2), c.IM, boolByte(c.Halted)}
	buf.Write(fields)
	binary.Write(&buf, binary.LittleEndian, c.IX)
	binary.Write(&buf, binary.LittleEndian, c.IY)
	binary.Write(&buf, binary.LittleEndian, c.SPL)
	binary.Write(&buf, binary.LittleEndian, c.SPS)
	binary.Write(&buf, binary.LittleEndian, c.PC)
	binary.Write(&buf, binary.LittleEndian, c.I)
	binary.Write(&buf, binary.LittleEndian, int32(c.pendingEI))
	binary.Write(&buf, binary.LittleEndian, c.Cycles)
	return buf.Bytes()
}

func (e *Emulator) restoreCPU(data []byte) error {
	if len(data) < 24 {
		return ErrSnapshotSection
	}
	c := e.CPU
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = data[0], data[1], data[2], data[3], data[4], data[5], data[6], data[7]
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = data[8], data[9], data[10], data[11], data[12], data[13], data[14], data[15]
	c.R, c.MBASE = data[16], data[17]
	c.ADL, c.MADL = addrMode(data[18] != 0), data[19] != 0
	c.IEF1, c.IEF2 = data[20] != 0, data[21] != 0
	c.IM, c.Halted = data[22], data[23] != 0

	r := bytes.NewReader(data[24:])
	if err := binary.Read(r, binary.LittleEndian, &c.IX); err != nil {
		return ErrSnapshotSection
	}
	binary.Read(r, binary.LittleEndian, &c.IY)
	binary.Read(r, binary.LittleEndian, &c.SPL)
	binary.Read(r, binary.LittleEndian, &c.SPS)
	binary.Read(r, binary.LittleEndian, &c.PC)
	binary.Read(r, binary.LittleEndian, &c.I)
	var pending int32
	binary.Read(r, binary.LittleEndian, &pending)
	c.pendingEI = int(pending)
	binary.Read(r, binary.LittleEndian, &c.Cycles)
	c.regs8 = [8]*byte{&c.B, &c.C, &c.D, &c.E, &c.H, &c.L, nil, &c.A}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// snapshotBus serializes every peripheral's register state through the
// bus's existing port read path, at the fixed offsets each peripheral's
// register map spans - simpler than hand-duplicating every field a
// second time, and guaranteed to stay in sync with ReadPort/WritePort.
func (e *Emulator) snapshotBus() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, e.Bus.cycles)
	dumpRegisterWindow(&buf, e.Bus.IC.ReadPort, 0x1C)
	dumpRegisterWindow(&buf, e.Bus.Timers.ReadPort, 0x40)
	dumpRegisterWindow(&buf, e.Bus.RTC.ReadPort, 0x44)
	dumpRegisterWindow(&buf, e.Bus.LCD.ReadPort, 0x400)
	dumpRegisterWindow(&buf, e.Bus.Keypad.ReadPort, 0x44)
	dumpRegisterWindow(&buf, e.Bus.SPI.ReadPort, 0x28)
	dumpRegisterWindow(&buf, e.Bus.SHA.ReadPort, 0x80)
	dumpRegisterWindow(&buf, e.Bus.Ctrl.ReadPort, 0x2A)
	dumpRegisterWindow(&buf, e.Bus.Watchdog.ReadPort, 0x20)
	dumpRegisterWindow(&buf, e.Bus.Backlight.ReadPort, 0x04)
	return buf.Bytes()
}

func dumpRegisterWindow(buf *bytes.Buffer, read func(uint16) byte, size uint16) {
	for off := uint16(0); off < size; off++ {
		buf.WriteByte(read(off))
	}
}

func (e *Emulator) restoreBus(data []byte) error {
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &e.Bus.cycles); err != nil {
		return ErrSnapshotSection
	}
	windows := []struct {
		write func(uint16, byte)
		size  uint16
	}{
		{e.Bus.IC.WritePort, 0x1C},
		{e.Bus.Timers.WritePort, 0x40},
		{e.Bus.RTC.WritePort, 0x44},
		{e.Bus.LCD.WritePort, 0x400},
		{e.Bus.Keypad.WritePort, 0x44},
		{e.Bus.SPI.WritePort, 0x28},
		{e.Bus.SHA.WritePort, 0x80},
		{e.Bus.Ctrl.WritePort, 0x2A},
		{e.Bus.Watchdog.WritePort, 0x20},
		{e.Bus.Backlight.WritePort, 0x04},
	}
	for _, w := range windows {
		for off := uint16(0); off < w.size; off++ {
			b, err := r.ReadByte()
			if err != nil {
				return ErrSnapshotSection
			}
			w.write(off, b)
		}
	}
	return nil
}

// snapshotScheduler serializes the cursor and every pending event's
// (id, clock, deadline) triple. The heap's internal ordering is
// reconstructed by re-scheduling each event on Load rather than copying
// the underlying slice layout, since Go doesn't guarantee heap slice
// order is otherwise meaningful to persist.
func (e *Emulator) snapshotScheduler() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, e.Sched.cursor)
	binary.Write(&buf, binary.LittleEndian, e.Sched.rates)
	binary.Write(&buf, binary.LittleEndian, uint32(len(e.Sched.queue)))
	for _, ev := range e.Sched.queue {
		binary.Write(&buf, binary.LittleEndian, int32(ev.id))
		binary.Write(&buf, binary.LittleEndian, int32(ev.clock))
		binary.Write(&buf, binary.LittleEndian, ev.deadline)
	}
	return buf.Bytes()
}

func (e *Emulator) restoreScheduler(data []byte) error {
	r := bytes.NewReader(data)
	s := e.Sched
	if err := binary.Read(r, binary.LittleEndian, &s.cursor); err != nil {
		return ErrSnapshotSection
	}
	var rates [4]uint64 // cpuHz, spiHz, rtcHz, lcdHz, in clockRates field order
	if err := binary.Read(r, binary.LittleEndian, &rates); err != nil {
		return ErrSnapshotSection
	}
	s.rates = clockRates{cpuHz: rates[0], spiHz: rates[1], rtcHz: rates[2], lcdHz: rates[3]}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return ErrSnapshotSection
	}
	s.queue = nil
	s.byID = make(map[EventID]*scheduledEvent)
	for i := uint32(0); i < count; i++ {
		var id, clock int32
		var deadline uint64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return ErrSnapshotSection
		}
		binary.Read(r, binary.LittleEndian, &clock)
		if err := binary.Read(r, binary.LittleEndian, &deadline); err != nil {
			return ErrSnapshotSection
		}
		ticksFromCursor := deadline - s.cursor
		s.ScheduleBaseTicks(EventID(id), ClockID(clock), ticksFromCursor)
	}
	return nil
}
