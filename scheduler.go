// scheduler.go - Event scheduler over the shared 7.68 GHz base clock
//
// No direct analogue in the reference engine (its sound chips tick on
// wall-clock sample counters, not a shared virtual-clock priority queue).
// The "advance state only when a scheduled event fires" idea in spec.md
// §9's Design Notes is grounded on the outer cycle-budget loop shape of
// the teacher's CPUZ80Runner (cpu_z80_runner.go): step-until-budget, with
// the scheduler drain inserted at each instruction boundary. The priority
// queue itself uses the standard library's container/heap — no repo in
// the retrieval pack ships a priority-queue library, and a heap over a
// handful of live hardware events has no business reaching for one.

package ce84

import "container/heap"

// BaseClockHz is a common multiple of the CPU (6/12/24/48 MHz), SPI
// (24 MHz) and 32.768 kHz RTC/keypad clock rates.
const BaseClockHz uint64 = 7_680_000_000

// EventID identifies which hardware state machine a scheduled event
// belongs to. The scheduler never holds a reference to the peripheral
// itself (spec.md §9): it only ever carries this tag, and the orchestrator
// dispatches by tag to the owning peripheral through the bus.
type EventID int

const (
	EventRTCTick EventID = iota
	EventRTCLatch
	EventRTCLoadTick
	EventOSTimer
	EventTimer0Match
	EventTimer1Match
	EventTimer2Match
	EventTimerDelay
	EventLCDPhase
	EventSPIComplete
)

// ClockID names a clock domain so the scheduler can convert a tick count
// in that domain into base ticks, and so CPU speed changes can find and
// rebase every CPU-domain event.
type ClockID int

const (
	ClockCPU ClockID = iota
	ClockSPI
	ClockRTC
	ClockLCDPixel
)

// clockRateHz holds the current rate for each clock domain. CPU is the
// only domain that changes at runtime (control port 0x01); the others are
// fixed by the ASIC.
type clockRates struct {
	cpuHz uint64
	spiHz uint64
	rtcHz uint64
	lcdHz uint64
}

func defaultClockRates() clockRates {
	return clockRates{
		cpuHz: 48_000_000,
		spiHz: 24_000_000,
		rtcHz: 32_768,
		lcdHz: 9_216_000, // nominal CE LCD pixel clock; used only for VBLANK phase pacing
	}
}

func (r clockRates) hz(c ClockID) uint64 {
	switch c {
	case ClockCPU:
		return r.cpuHz
	case ClockSPI:
		return r.spiHz
	case ClockRTC:
		return r.rtcHz
	case ClockLCDPixel:
		return r.lcdHz
	default:
		return r.cpuHz
	}
}

// baseTicksPerTick returns how many base ticks make up one tick of clock
// c, i.e. BaseClockHz / rate. The CPU, SPI and RTC rates divide
// BaseClockHz exactly; the 9.216 MHz LCD pixel rate does not, and its
// quotient is truncated to 833 base ticks.
func (r clockRates) baseTicksPerTick(c ClockID) uint64 {
	return BaseClockHz / r.hz(c)
}

// scheduledEvent is one entry in the priority queue.
type scheduledEvent struct {
	id       EventID
	clock    ClockID
	deadline uint64 // absolute base-tick deadline
	enabled  bool
	index    int // heap bookkeeping
}

type eventHeap []*scheduledEvent

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*scheduledEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler tracks every pending hardware event as a deadline in base
// ticks and drains the ones whose deadline has passed as CPU cycles
// advance.
type Scheduler struct {
	rates  clockRates
	cursor uint64 // current time, in base ticks
	queue  eventHeap
	byID   map[EventID]*scheduledEvent
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		rates: defaultClockRates(),
		byID:  make(map[EventID]*scheduledEvent),
	}
}

func (s *Scheduler) Reset() {
	s.rates = defaultClockRates()
	s.cursor = 0
	s.queue = nil
	s.byID = make(map[EventID]*scheduledEvent)
}

// Schedule arms (or re-arms) event id on clock, firing ticksFromNow ticks
// of that clock's own rate from the current cursor.
func (s *Scheduler) Schedule(id EventID, clock ClockID, ticksFromNow uint64) {
	s.Cancel(id)
	deadline := s.cursor + ticksFromNow*s.rates.baseTicksPerTick(clock)
	e := &scheduledEvent{id: id, clock: clock, deadline: deadline, enabled: true}
	s.byID[id] = e
	heap.Push(&s.queue, e)
}

// ScheduleBaseTicks arms an event a raw number of base ticks from now,
// for callers that already work in the base-tick domain (e.g. timer match
// delay pipelines specified directly in base ticks).
func (s *Scheduler) ScheduleBaseTicks(id EventID, clock ClockID, baseTicksFromNow uint64) {
	s.Cancel(id)
	deadline := s.cursor + baseTicksFromNow
	e := &scheduledEvent{id: id, clock: clock, deadline: deadline, enabled: true}
	s.byID[id] = e
	heap.Push(&s.queue, e)
}

// Cancel removes a pending event, if any. Cancelling an event that isn't
// scheduled is a no-op.
func (s *Scheduler) Cancel(id EventID) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	if e.index >= 0 && e.index < len(s.queue) {
		heap.Remove(&s.queue, e.index)
	}
	delete(s.byID, id)
}

// Pending reports whether id currently has an armed deadline.
func (s *Scheduler) Pending(id EventID) bool {
	_, ok := s.byID[id]
	return ok
}

// Advance moves the scheduler's cursor forward by cpuCycles CPU cycles
// (converted to base ticks at the current CPU rate) and returns every
// event whose deadline is now at or before the cursor, in deadline order.
// Draining happens at CPU instruction boundaries (spec.md §5); block
// instructions and HALT only call Advance at their own natural completion
// point.
func (s *Scheduler) Advance(cpuCycles uint64) []EventID {
	s.cursor += cpuCycles * s.rates.baseTicksPerTick(ClockCPU)
	return s.drain()
}

// AdvanceBaseTicks is the raw-base-tick form of Advance, used internally
// when a caller already has a base-tick delta (e.g. after a clock-rate
// rebase where cycles and ticks no longer have a single ratio mid-call).
func (s *Scheduler) AdvanceBaseTicks(baseTicks uint64) []EventID {
	s.cursor += baseTicks
	return s.drain()
}

func (s *Scheduler) drain() []EventID {
	var fired []EventID
	for len(s.queue) > 0 && s.queue[0].deadline <= s.cursor {
		e := heap.Pop(&s.queue).(*scheduledEvent)
		delete(s.byID, e.id)
		fired = append(fired, e.id)
	}
	s.normalizeOverflow()
	return fired
}

// overflowMargin is how close to the uint64 ceiling the cursor is allowed
// to get before every live timestamp (including the cursor) is rebased
// down by a common offset. 2^63 leaves enormous headroom (tens of years
// of CPU time at 48 MHz) while being simple to reason about.
const overflowMargin = uint64(1) << 63

func (s *Scheduler) normalizeOverflow() {
	if s.cursor < overflowMargin {
		return
	}
	offset := s.cursor
	// Keep the earliest pending deadline as the new floor so we never
	// subtract past an event that hasn't fired yet.
	for _, e := range s.queue {
		if e.deadline < offset {
			offset = e.deadline
		}
	}
	s.cursor -= offset
	for _, e := range s.queue {
		e.deadline -= offset
	}
}

// ConvertCPUSpeed rescales the scheduler's time basis when the CPU clock
// changes (control port 0x01). A CPU-domain deadline represents a fixed
// number of remaining CPU cycles, not a fixed span of wall-clock time, so
// per spec.md §4.3/§9 rebasing it means preserving that cycle count: the
// remaining base-tick distance scales by oldHz/newHz (a speed-up shrinks
// it, since the same cycle count now takes less virtual time). Non-CPU-
// domain events (RTC, SPI, LCD) are untouched: their rate didn't change.
func (s *Scheduler) ConvertCPUSpeed(newHz, oldHz uint64) {
	if newHz == oldHz || oldHz == 0 {
		return
	}
	s.rates.cpuHz = newHz
	for _, e := range s.queue {
		if e.clock != ClockCPU {
			continue
		}
		delta := e.deadline - s.cursor
		e.deadline = s.cursor + delta*oldHz/newHz
	}
	// The cursor itself is a timestamp in the shared base-tick domain, not
	// a CPU-cycle count, so it is not rescaled — only the distance from it
	// to each CPU-domain deadline changes, matching how a faster CPU
	// reaches the same wall-clock deadline sooner.
}
