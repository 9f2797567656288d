package core

import "golang.org/x/exp/constraints"

const microsPerMilli = 1000

// Clock is the free-running microsecond time source used by the delay
// engine.
type Clock interface {
	// Micros returns a monotonic microsecond count that wraps at 2^32
	Micros() uint32

	// DelayMicros busy-waits for us microseconds
	DelayMicros(us uint32)
}

// Yielder is called repeatedly while Delay waits. Use it for cooperative
// scheduling or watchdog servicing. It must return promptly and must not
// race with the tick handler.
type Yielder interface {
	Yield()
}

// YieldFunc adapts a function to Yielder
type YieldFunc func()

func (f YieldFunc) Yield() {
	f()
}

type nopYielder struct{}

func (nopYielder) Yield() {}

// NopYielder does nothing.
var NopYielder Yielder = nopYielder{}

// Elapsed returns now - start in the counter's own width, which is correct
// across a wrap as long as less than one full period has passed.
func Elapsed[T constraints.Unsigned](now, start T) T {
	return now - start
}

// Delay blocks for ms milliseconds, calling the Yielder while it waits.
//
// Each consumed millisecond advances the anchor by exactly 1000 us rather
// than resetting it to the current time, so late polls do not stretch the
// total. The gap between two polls must stay below one wrap of Micros.
func (st *SysTick) Delay(ms uint32) {
	if ms == 0 {
		return
	}
	start := st.clock.Micros()
	st.events.Record(EvtDelay, start/microsPerMilli, ms, start)

	for ms > 0 {
		st.yielder.Yield()
		for ms > 0 && Elapsed(st.clock.Micros(), start) >= microsPerMilli {
			ms--
			start += microsPerMilli
		}
	}
}

// DelayMicroseconds busy-waits for us microseconds using the clock's own
// primitive.
func (st *SysTick) DelayMicroseconds(us uint32) {
	st.clock.DelayMicros(us)
}
