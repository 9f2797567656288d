//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"
	"runtime"
	"runtime/interrupt"
	"strconv"
	"sync/atomic"

	"tinygo.org/x/drivers/ws2812"

	"gotick/core"
	"gotick/protocol"
)

const (
	reportIntervalMs = 100
	blinkEvery       = 5   // Reports per status pixel toggle (1 Hz blink)
	summaryEvery     = 600 // Reports per debug summary (once a minute)

	statusPixelPin = machine.GPIO16
)

var (
	sysTick *core.SysTick

	// Incremented by the tick callback
	tickCount atomic.Uint32

	output = protocol.NewScratchOutput()

	reportsSent   uint32
	writeFailures uint32
)

func main() {
	initDebugUART()

	clock := newRPClock()
	st, err := core.New(newCortexMRegisters(), clock, core.Config{
		CoreHz:  machine.CPUFrequency(),
		Yielder: core.YieldFunc(runtime.Gosched),
	})
	if err != nil {
		debugPrintln("systick: " + err.Error())
		for {
		}
	}

	// Attach before Init so the callback sees every tick
	st.AttachCallback(onTick)
	sysTick = st
	st.Init()

	statusPixelPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pixel := ws2812.New(statusPixelPin)
	colors := []color.RGBA{{}}
	pixelOn := false

	var seq uint8
	for n := uint32(1); ; n++ {
		st.Delay(reportIntervalMs)

		sendReport(sample(st, clock, seq))
		seq++

		if n%blinkEvery == 0 {
			pixelOn = !pixelOn
			if pixelOn {
				colors[0] = color.RGBA{G: 0x20}
			} else {
				colors[0] = color.RGBA{}
			}
			if err := pixel.WriteColors(colors); err != nil {
				core.DebugPrintln("status pixel: " + err.Error())
			}
		}

		if n%summaryEvery == 0 {
			core.DebugPrintln("uptime=" + strconv.FormatUint(uint64(st.Uptime()), 10) +
				" sent=" + strconv.FormatUint(uint64(reportsSent), 10) +
				" failed=" + strconv.FormatUint(uint64(writeFailures), 10))
			st.Events().Dump()
		}
	}
}

// onTick runs in interrupt context after every uptime increment
func onTick() {
	tickCount.Add(1)
}

// sample reads the three counters with interrupts masked so that a tick
// cannot land between them
func sample(st *core.SysTick, clock *rpClock, seq uint8) protocol.Report {
	state := interrupt.Disable()
	r := protocol.Report{
		Seq:          seq,
		UptimeMillis: st.Uptime(),
		Micros:       clock.Micros(),
		Ticks:        tickCount.Load(),
	}
	interrupt.Restore(state)
	return r
}

// sendReport frames r and writes it to USB CDC. A report that cannot be
// written in full is dropped; the host resynchronizes on the next block.
func sendReport(r protocol.Report) {
	protocol.EncodeReport(output, r)
	data := output.Result()

	written := 0
	for written < len(data) {
		n, err := machine.Serial.Write(data[written:])
		if err != nil || n == 0 {
			// No host attached, or it stopped reading
			writeFailures++
			break
		}
		written += n
	}
	output.Reset()

	if written == len(data) {
		reportsSent++
	}
}
