package core

// Control/status register (CSR) bits of the Cortex-M system timer.
const (
	CSREnable        = 1 << 0  // counter enabled
	CSRTickInt       = 1 << 1  // assert the SysTick exception on underflow
	CSRClkSourceCore = 1 << 2  // clocked from the processor clock
	CSRCountFlag     = 1 << 16 // counter reached zero since last read
)

// ReloadMask covers the 24 bits of the reload and current value registers.
const ReloadMask = 0x00FFFFFF

// SysTickRegisters is the abstract register block that the driver programs.
// Platform-specific implementations map it onto the memory mapped
// SYST_CSR/SYST_RVR/SYST_CVR registers.
type SysTickRegisters interface {
	// SetReload writes the reload value register (ticks per period - 1)
	SetReload(v uint32)

	// Reload reads back the reload value register
	Reload() uint32

	// Current reads the current countdown value
	Current() uint32

	// ClearCurrent clears the countdown value and the COUNTFLAG bit
	ClearCurrent()

	// SetControl writes the control/status register
	SetControl(v uint32)

	// Control reads the control/status register.
	// On hardware the read clears COUNTFLAG.
	Control() uint32
}

// SoftRegisters is an in-memory SysTickRegisters that mirrors the
// hardware's read/write semantics. Used on hosts without the peripheral.
type SoftRegisters struct {
	reload  uint32
	current uint32
	control uint32

	// ReloadWrites counts writes to the reload register
	ReloadWrites int
}

func (r *SoftRegisters) SetReload(v uint32) {
	r.reload = v & ReloadMask
	r.ReloadWrites++
}

func (r *SoftRegisters) Reload() uint32 {
	return r.reload
}

func (r *SoftRegisters) Current() uint32 {
	return r.current
}

func (r *SoftRegisters) ClearCurrent() {
	r.current = 0
	r.control &^= CSRCountFlag
}

func (r *SoftRegisters) SetControl(v uint32) {
	// COUNTFLAG is read-only
	r.control = (r.control & CSRCountFlag) | (v &^ CSRCountFlag)
}

func (r *SoftRegisters) Control() uint32 {
	v := r.control
	r.control &^= CSRCountFlag
	return v
}

// SetCurrent forces the countdown value.
func (r *SoftRegisters) SetCurrent(v uint32) {
	r.current = v & ReloadMask
}

// Underflow simulates the counter reaching zero: the current value is
// reloaded and COUNTFLAG is set. It reports whether the exception would
// be raised.
func (r *SoftRegisters) Underflow() bool {
	if r.control&CSREnable == 0 {
		return false
	}
	r.current = r.reload
	r.control |= CSRCountFlag
	return r.control&CSRTickInt != 0
}
