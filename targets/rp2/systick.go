//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"gotick/core"
)

// Cortex-M system timer (SysTick) memory map
const (
	systickBase = 0xE000E010
	systickCSR  = systickBase + 0x00 // Control and status
	systickRVR  = systickBase + 0x04 // Reload value
	systickCVR  = systickBase + 0x08 // Current value
)

// cortexMRegisters implements core.SysTickRegisters on the memory mapped
// SysTick block
type cortexMRegisters struct {
	csr *volatile.Register32
	rvr *volatile.Register32
	cvr *volatile.Register32
}

func newCortexMRegisters() *cortexMRegisters {
	return &cortexMRegisters{
		csr: (*volatile.Register32)(unsafe.Pointer(uintptr(systickCSR))),
		rvr: (*volatile.Register32)(unsafe.Pointer(uintptr(systickRVR))),
		cvr: (*volatile.Register32)(unsafe.Pointer(uintptr(systickCVR))),
	}
}

func (r *cortexMRegisters) SetReload(v uint32) {
	r.rvr.Set(v & core.ReloadMask)
}

func (r *cortexMRegisters) Reload() uint32 {
	return r.rvr.Get()
}

func (r *cortexMRegisters) Current() uint32 {
	return r.cvr.Get()
}

// ClearCurrent writes CVR; any write clears it and COUNTFLAG
func (r *cortexMRegisters) ClearCurrent() {
	r.cvr.Set(0)
}

func (r *cortexMRegisters) SetControl(v uint32) {
	r.csr.Set(v)
}

func (r *cortexMRegisters) Control() uint32 {
	return r.csr.Get()
}

// SysTick_Handler is the exception vector. TinyGo's RP2 runtime keeps
// time on the TIMER peripheral, leaving SysTick free.
//
//export SysTick_Handler
func sysTickHandler() {
	if sysTick != nil {
		sysTick.Tick()
	}
}
