//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the state saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
