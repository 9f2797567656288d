//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"gotick/core"
)

// Raw timer low word, no latching. timerBase is chip specific.
const timerTIMERAWL = timerBase + 0x28

// rpClock implements core.Clock on the RP2040/RP2350 1 MHz timer, which
// runs independently of SysTick.
type rpClock struct {
	rawL *volatile.Register32
}

func newRPClock() *rpClock {
	return &rpClock{
		rawL: (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL))),
	}
}

// Micros returns the low 32 bits of the microsecond counter
func (c *rpClock) Micros() uint32 {
	return c.rawL.Get()
}

// DelayMicros busy-waits on the raw timer
func (c *rpClock) DelayMicros(us uint32) {
	start := c.rawL.Get()
	for core.Elapsed(c.rawL.Get(), start) < us {
	}
}
