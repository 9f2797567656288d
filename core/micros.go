package core

// TickClock is a Clock built from the SysTick driver itself: whole
// milliseconds come from the uptime counter and the fraction from the
// countdown register. Resolution is one microsecond at core clocks of
// 1 MHz and above.
type TickClock struct {
	st *SysTick
}

// NewTickClock returns a Clock derived from st.
func NewTickClock(st *SysTick) TickClock {
	return TickClock{st: st}
}

// Micros returns microseconds since Init, modulo 2^32.
//
// An underflow whose tick has not been handled yet (interrupts masked or
// still entering the handler) is counted as the next millisecond, so the
// result never steps back. Masked sections must stay shorter than one
// millisecond; a second underflow in the same window is lost.
func (c TickClock) Micros() uint32 {
	period := uint64(c.st.reload) + 1
	for {
		ms := c.st.Uptime()
		count := c.st.Count()
		pending := c.st.pollUnderflow(ms)
		// Retry if a tick landed between the reads
		if ms != c.st.Uptime() {
			continue
		}
		if pending {
			// The count read may predate the reload
			ms++
			count = c.st.Count()
		}
		if count > c.st.reload {
			count = c.st.reload
		}
		cycles := uint64(c.st.reload - count)
		return ms*microsPerMilli + uint32(cycles*microsPerMilli/period)
	}
}

// DelayMicros spins on Micros until us microseconds have passed.
func (c TickClock) DelayMicros(us uint32) {
	start := c.Micros()
	for Elapsed(c.Micros(), start) < us {
	}
}
