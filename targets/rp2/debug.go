//go:build rp2040 || rp2350

package main

import (
	"machine"

	"gotick/core"
)

var debugUART *machine.UART

// initDebugUART routes core debug output to UART0 (GPIO0 TX, GPIO1 RX) at
// 115200 baud, keeping USB free for reports
func initDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(debugPrintln)
	core.SetDebugEnabled(true)
	debugPrintln("=== gotick RP2 debug UART ===")
}

// debugPrintln writes a string to the debug UART with newline
func debugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
