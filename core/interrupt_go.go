//go:build !tinygo

package core

import "sync"

// State is the saved interrupt state on regular Go
type State uintptr

// Without interrupts to mask, a mutex serializes the critical section so
// that a goroutine standing in for the tick interrupt is excluded.
var interruptMu sync.Mutex

// disableInterrupts enters the critical section
func disableInterrupts() State {
	interruptMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	interruptMu.Unlock()
}
