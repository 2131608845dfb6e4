// emulator.go - the orchestrator: owns CPU, Bus and Scheduler and drives
// them forward a caller-supplied number of cycles at a time.
//
// Grounded on the reference engine's outer machine-runner loop
// (cpu_z80_runner.go RunFor/RunCycles shape): a single-threaded
// run-to-budget loop that never lets any subsystem directly reference
// another except through the interrupt controller and scheduler event
// tags, matching spec.md §9's Design Notes.
package ce84

// Emulator is the top-level entry point this package exposes: a fully
// self-contained TI-84 Plus CE core. It has no knowledge of a host UI,
// ROM picker, or on-disk cache (doc.go) - callers drive it with
// LoadROM, RunCycles, SetKey and FrameBuffer, and persist it with
// Save/Load.
type Emulator struct {
	CPU   *CPU
	Bus   *Bus
	Sched *Scheduler

	logFn LogFunc

	loaded    bool
	lastSpeed uint64
}

// NewEmulator constructs a powered-off core: flash is empty, RAM is
// zeroed, and RunCycles does nothing and returns 0 until LoadROM
// succeeds.
func NewEmulator() *Emulator {
	sched := NewScheduler()
	bus := NewBus(sched)
	cpu := NewCPU(bus)
	e := &Emulator{
		CPU:       cpu,
		Bus:       bus,
		Sched:     sched,
		logFn:     noopLog,
		lastSpeed: 48_000_000,
	}
	return e
}

// LoadROM copies rom into flash and resets every subsystem to its
// power-on state, per spec.md §6's reset() contract.
func (e *Emulator) LoadROM(rom []byte) error {
	if err := e.Bus.mem.LoadROM(rom); err != nil {
		return err
	}
	e.loaded = true
	e.Reset()
	e.logf(LogInfo, "rom loaded (%d bytes)", len(rom))
	return nil
}

// Reset restores CPU, bus and scheduler to their power-on state without
// discarding the loaded ROM image.
func (e *Emulator) Reset() {
	// Bus.Reset resets the scheduler's owner peripherals, but the
	// Scheduler itself must be cleared first so each peripheral's Reset
	// re-arms its own first event against a known-empty queue.
	e.Sched.Reset()
	e.Bus.Reset()
	e.CPU.Reset()
	e.lastSpeed = 48_000_000
}

// RunCycles advances the core by approximately n CPU cycles: it executes
// whole instructions until at least n cycles have elapsed (it never
// truncates an instruction mid-execution), draining the scheduler after
// every instruction boundary and dispatching any interrupt the
// controller's aggregate line is asserting, per spec.md §5's run_cycles
// contract. It returns the number of cycles actually consumed.
func (e *Emulator) RunCycles(n uint64) uint64 {
	if !e.loaded {
		return 0
	}
	var consumed uint64
	for consumed < n {
		before := e.CPU.Cycles
		e.CPU.Step()
		delta := e.CPU.Cycles - before
		consumed += delta

		e.Bus.Timers.Advance(delta)

		fired := e.Sched.Advance(delta)
		for _, id := range fired {
			e.dispatchEvent(id)
		}

		e.syncInterruptLine()
		e.syncCPUSpeed()
	}
	return consumed
}

// dispatchEvent routes one fired scheduler event to its owning
// peripheral. This is the only place in the core that knows the mapping
// from EventID to peripheral, per spec.md §9's "scheduler never holds a
// peripheral reference" rule.
func (e *Emulator) dispatchEvent(id EventID) {
	switch id {
	case EventRTCTick:
		e.Bus.RTC.OnTick()
		e.Bus.Timers.AdvanceRTCTick()
	case EventRTCLoadTick:
		e.Bus.RTC.OnLoadTick()
	case EventOSTimer:
		e.Bus.Timers.OnOSTimerEvent()
	case EventTimer0Match:
		e.Bus.Timers.OnMatchEvent(0)
	case EventTimer1Match:
		e.Bus.Timers.OnMatchEvent(1)
	case EventTimer2Match:
		e.Bus.Timers.OnMatchEvent(2)
	case EventLCDPhase:
		e.Bus.LCD.OnPhaseEvent()
	case EventSPIComplete:
		e.Bus.SPI.OnTransferComplete()
	}
}

// syncInterruptLine propagates the interrupt controller's aggregate line
// to the CPU. IM3's vector comes from the controller's currently-latched
// highest-priority source; lower modes ignore it.
func (e *Emulator) syncInterruptLine() {
	e.CPU.RequestInterrupt(e.Bus.IC.Line(), e.Bus.IC.vectorForLatched())
}

// syncCPUSpeed detects a CPU-speed register write (control port 0x01)
// and rebases the scheduler, per spec.md §4.3/§9's ConvertCPUSpeed
// contract.
func (e *Emulator) syncCPUSpeed() {
	newHz := e.Bus.Ctrl.SpeedHz()
	if newHz != e.lastSpeed {
		e.Sched.ConvertCPUSpeed(newHz, e.lastSpeed)
		e.Bus.Timers.SetSpeedIndex(e.Bus.Ctrl.SpeedIndex())
		e.lastSpeed = newHz
	}
}

// SetKey updates one key's pressed state in the keypad matrix.
func (e *Emulator) SetKey(row, col int, down bool) error {
	return e.Bus.Keypad.SetKey(row, col, down)
}

// FrameBuffer renders the current VRAM contents to ARGB8888, per
// spec.md §4.6's pull-based rendering model: each call has
// LCD.FrameBuffer walk VRAM into the LCD's output buffer and returns
// that buffer; the DMA phase state machine only drives VBLANK.
func (e *Emulator) FrameBuffer() []uint32 {
	return e.Bus.LCD.FrameBuffer()
}

// Backlight returns the current backlight brightness, 0 (off) to 255.
func (e *Emulator) Backlight() byte {
	return e.Bus.Backlight.Level()
}

// SetIOTracer installs (or clears, with nil) an observer for every
// memory write and every port I/O access, for use by the debug console.
func (e *Emulator) SetIOTracer(t IOTracer) {
	e.Bus.Tracer = t
}
