package core

import (
	"errors"
	"sync/atomic"
)

var (
	ErrReloadRange = errors.New("core clock gives a reload value outside the 24-bit SysTick range")
	ErrNoRegisters = errors.New("SysTick registers not configured")
)

// TickHandler services one SysTick exception. It runs in interrupt context
// and must not block.
type TickHandler interface {
	HandleTick(st *SysTick)
}

// TickHandlerFunc adapts a function to TickHandler
type TickHandlerFunc func(st *SysTick)

func (f TickHandlerFunc) HandleTick(st *SysTick) {
	f(st)
}

type standardTickHandler struct{}

func (standardTickHandler) HandleTick(st *SysTick) {
	st.Increment()
	st.RunCallback()
}

// StandardTickHandler counts the tick and then runs the attached callback.
var StandardTickHandler TickHandler = standardTickHandler{}

// Config holds the construction-time settings of a SysTick driver.
type Config struct {
	// CoreHz is the processor clock feeding the timer
	CoreHz uint32

	// Yielder is called from Delay while waiting (default: no-op)
	Yielder Yielder

	// Handler replaces the interrupt handler (default: StandardTickHandler)
	Handler TickHandler
}

// SysTick owns the system timer: the 1 ms uptime counter, the tick
// callback slot and the delay engine.
type SysTick struct {
	regs    SysTickRegisters
	clock   Clock
	yielder Yielder
	handler TickHandler
	reload  uint32

	uptime   atomic.Uint32
	callback atomic.Pointer[func()]

	// Uptime value whose underflow was seen in COUNTFLAG before the tick
	// handler ran, tagged with pendingValid. Zero when nothing is pending.
	pending atomic.Uint64

	events EventRing
}

// ReloadForFrequency returns the reload value that makes a timer clocked at
// coreHz underflow once per millisecond.
func ReloadForFrequency(coreHz uint32) (uint32, error) {
	perMilli := coreHz / 1000
	if perMilli < 2 || perMilli-1 > ReloadMask {
		return 0, ErrReloadRange
	}
	return perMilli - 1, nil
}

// New creates a driver bound to the given register block. clock supplies
// micros() and the microsecond busy wait; when nil, a TickClock derived
// from this driver is used.
func New(regs SysTickRegisters, clock Clock, cfg Config) (*SysTick, error) {
	if regs == nil {
		return nil, ErrNoRegisters
	}
	reload, err := ReloadForFrequency(cfg.CoreHz)
	if err != nil {
		return nil, err
	}

	st := &SysTick{
		regs:    regs,
		clock:   clock,
		yielder: cfg.Yielder,
		handler: cfg.Handler,
		reload:  reload,
	}
	if st.clock == nil {
		st.clock = TickClock{st: st}
	}
	if st.yielder == nil {
		st.yielder = NopYielder
	}
	if st.handler == nil {
		st.handler = StandardTickHandler
	}
	return st, nil
}

// Init programs the reload value for a 1 ms period, restarts the countdown
// from a full period and enables the timer.
// Call once at startup.
func (st *SysTick) Init() {
	st.regs.SetReload(st.reload)
	st.regs.ClearCurrent()
	st.pending.Store(0)
	st.events.Record(EvtInit, st.Uptime(), st.reload, 0)
	DebugPrintln("[SYSTICK] init reload=" + utoa(st.reload))
	st.Enable()
}

// Enable clocks the timer from the core clock, starts it and enables the
// interrupt. The reload value is left untouched, so Enable resumes a timer
// stopped by Disable.
func (st *SysTick) Enable() {
	st.regs.SetControl(CSRClkSourceCore | CSREnable | CSRTickInt)
	st.events.Record(EvtEnable, st.Uptime(), 0, 0)
}

// Disable keeps the core clock selected but stops the counter and its
// interrupt.
func (st *SysTick) Disable() {
	st.regs.SetControl(CSRClkSourceCore)
	st.events.Record(EvtDisable, st.Uptime(), 0, 0)
}

// AttachCallback installs fn to run from interrupt context after every
// tick. A nil fn detaches the current callback.
//
// The tick following the return of AttachCallback sees the new state. A
// tick that is already running may still call the previous callback once.
func (st *SysTick) AttachCallback(fn func()) {
	if fn == nil {
		st.callback.Store(nil)
		st.events.Record(EvtDetach, st.Uptime(), 0, 0)
		return
	}
	st.callback.Store(&fn)
	st.events.Record(EvtAttach, st.Uptime(), 0, 0)
}

// Tick is the SysTick exception entry point. Wire it to the interrupt
// vector.
func (st *SysTick) Tick() {
	st.handler.HandleTick(st)
}

// Increment advances the uptime counter by one millisecond, wrapping at 2^32.
// It also consumes COUNTFLAG, so a set flag always belongs to a tick whose
// handler has not run yet.
func (st *SysTick) Increment() {
	st.regs.Control()
	st.uptime.Add(1)
	st.pending.Store(0)
}

// RunCallback calls the attached callback, if any.
func (st *SysTick) RunCallback() {
	if fn := st.callback.Load(); fn != nil {
		(*fn)()
	}
}

// Uptime returns milliseconds since Init, modulo 2^32.
func (st *SysTick) Uptime() uint32 {
	return st.uptime.Load()
}

// ReloadValue returns the reload value programmed by Init.
func (st *SysTick) ReloadValue() uint32 {
	return st.reload
}

// Count returns the current countdown value.
func (st *SysTick) Count() uint32 {
	return st.regs.Current() & ReloadMask
}

// CheckUnderflow reports whether the counter has reloaded but the tick
// handler has not counted that millisecond yet, as happens while
// interrupts are masked. Reading COUNTFLAG clears it on hardware, so the
// driver remembers the underflow until the next Increment.
func (st *SysTick) CheckUnderflow() bool {
	return st.pollUnderflow(st.Uptime())
}

const pendingValid = 1 << 32

// pollUnderflow checks for an unhandled underflow following uptime ms.
// ms must be read before the call: if the handler runs in between it
// consumes COUNTFLAG and the mark can only name a stale uptime.
func (st *SysTick) pollUnderflow(ms uint32) bool {
	mark := pendingValid | uint64(ms)
	if st.regs.Control()&CSRCountFlag != 0 {
		st.pending.Store(mark)
		return true
	}
	return st.pending.Load() == mark
}

// Events returns the driver's event ring.
func (st *SysTick) Events() *EventRing {
	return &st.events
}
