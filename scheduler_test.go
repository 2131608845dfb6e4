package ce84

import "testing"

func TestSchedulerFiresInDeadlineOrder(t *testing.T) {
	s := NewScheduler()
	s.Schedule(EventTimer1Match, ClockCPU, 10)
	s.Schedule(EventTimer0Match, ClockCPU, 5)

	fired := s.Advance(5)
	if len(fired) != 1 || fired[0] != EventTimer0Match {
		t.Fatalf("fired = %v, want [EventTimer0Match] after 5 CPU cycles", fired)
	}

	fired = s.Advance(5)
	if len(fired) != 1 || fired[0] != EventTimer1Match {
		t.Fatalf("fired = %v, want [EventTimer1Match] after 5 more CPU cycles", fired)
	}
}

func TestSchedulerCancelPreventsFiring(t *testing.T) {
	s := NewScheduler()
	s.Schedule(EventOSTimer, ClockCPU, 3)
	s.Cancel(EventOSTimer)

	fired := s.Advance(100)
	for _, id := range fired {
		if id == EventOSTimer {
			t.Fatal("cancelled event must not fire")
		}
	}
}

func TestConvertCPUSpeedPreservesRemainingCycleCount(t *testing.T) {
	s := NewScheduler()
	s.Schedule(EventOSTimer, ClockCPU, 48) // 48 cycles remaining at the original rate

	s.ConvertCPUSpeed(96_000_000, 48_000_000) // double the clock rate, no cycles consumed yet

	// A CPU-domain deadline tracks a cycle count, not a wall-clock span:
	// doubling the rate doesn't change how many cycles are left to run.
	fired := s.Advance(47)
	if len(fired) != 0 {
		t.Fatalf("fired = %v, event should still need one more cycle", fired)
	}
	fired = s.Advance(1)
	if len(fired) != 1 || fired[0] != EventOSTimer {
		t.Fatalf("fired = %v, want the OS timer after its full original cycle count", fired)
	}
}

func TestConvertCPUSpeedUpShrinksWallClockWaitForFixedCycleCount(t *testing.T) {
	// Two schedulers given the same 48-cycle deadline, one rebased to run
	// twice as fast before any cycles are consumed: it should reach its
	// deadline after half the base-tick (wall-clock) distance.
	slow := NewScheduler()
	slow.Schedule(EventOSTimer, ClockCPU, 48)

	fast := NewScheduler()
	fast.Schedule(EventOSTimer, ClockCPU, 48)
	fast.ConvertCPUSpeed(96_000_000, 48_000_000)

	slowDelta := slow.queue[0].deadline - slow.cursor
	fastDelta := fast.queue[0].deadline - fast.cursor
	if fastDelta != slowDelta/2 {
		t.Fatalf("fastDelta = %d, want half of slowDelta = %d", fastDelta, slowDelta)
	}
}
