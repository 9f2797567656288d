//go:build rp2350

package main

// RP2350 TIMER0 peripheral. It sits at a different address than the
// RP2040 TIMER but keeps the same register layout up to TIMERAWL.
const timerBase = 0x400B0000
