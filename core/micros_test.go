package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningRegisters counts down by step cycles on every read of the current
// value and raises the tick through onTick when it passes zero.
type runningRegisters struct {
	SoftRegisters
	step   uint32
	onTick func()
}

func (r *runningRegisters) Current() uint32 {
	cur := r.SoftRegisters.Current()
	if cur < r.step {
		if r.Underflow() && r.onTick != nil {
			r.onTick()
		}
		return r.SoftRegisters.Current()
	}
	r.SetCurrent(cur - r.step)
	return cur - r.step
}

func TestTickClockMicros(t *testing.T) {
	regs := new(SoftRegisters)
	st, err := New(regs, nil, Config{CoreHz: 1000000})
	require.NoError(t, err)
	st.Init()
	clock := NewTickClock(st)

	regs.SetCurrent(999)
	assert.Equal(t, uint32(0), clock.Micros())

	regs.SetCurrent(499)
	assert.Equal(t, uint32(500), clock.Micros())

	regs.SetCurrent(0)
	assert.Equal(t, uint32(999), clock.Micros())

	st.Tick()
	regs.SetCurrent(999)
	assert.Equal(t, uint32(1000), clock.Micros())

	regs.SetCurrent(749)
	assert.Equal(t, uint32(1250), clock.Micros())
}

func TestTickClockScalesWithCoreClock(t *testing.T) {
	regs := new(SoftRegisters)
	st, err := New(regs, nil, Config{CoreHz: 72000000})
	require.NoError(t, err)
	st.Init()

	regs.SetCurrent(st.ReloadValue() - 36000)
	assert.Equal(t, uint32(500), NewTickClock(st).Micros())
}

func TestTickClockWraps(t *testing.T) {
	regs := new(SoftRegisters)
	st, err := New(regs, nil, Config{CoreHz: 1000000})
	require.NoError(t, err)
	st.Init()
	clock := NewTickClock(st)

	// 4294967 ms is the last whole millisecond before the microsecond
	// count passes 2^32
	st.uptime.Store(4294967)
	regs.SetCurrent(999)
	before := clock.Micros()
	assert.Equal(t, uint32(4294967000), before)

	st.Tick()
	after := clock.Micros()
	assert.Equal(t, uint32(704), after)
	assert.Equal(t, uint32(1000), Elapsed(after, before))
}

func TestTickClockDrivesDelays(t *testing.T) {
	regs := &runningRegisters{step: 10}
	st, err := New(regs, nil, Config{CoreHz: 1000000})
	require.NoError(t, err)
	regs.onTick = st.Tick
	st.Init()
	regs.SetCurrent(st.ReloadValue())
	clock := NewTickClock(st)

	start := clock.Micros()
	st.DelayMicroseconds(2500)
	elapsed := Elapsed(clock.Micros(), start)
	assert.GreaterOrEqual(t, elapsed, uint32(2500))
	assert.Less(t, elapsed, uint32(2600))

	uptime := st.Uptime()
	st.Delay(3)
	assert.GreaterOrEqual(t, st.Uptime()-uptime, uint32(3))
	assert.LessOrEqual(t, st.Uptime()-uptime, uint32(4))
}

func TestTickClockPendingTick(t *testing.T) {
	regs := new(SoftRegisters)
	st, err := New(regs, nil, Config{CoreHz: 1000000})
	require.NoError(t, err)
	st.Init()
	clock := NewTickClock(st)

	st.uptime.Store(5)
	regs.SetCurrent(100)
	assert.Equal(t, uint32(5899), clock.Micros())

	// Counter reloads while interrupts are masked; the handler has not run
	require.True(t, regs.Underflow())
	assert.Equal(t, uint32(6000), clock.Micros())

	// COUNTFLAG is gone after the first read but the tick is still owed
	regs.SetCurrent(600)
	assert.Equal(t, uint32(6399), clock.Micros())
	assert.Equal(t, uint32(5), st.Uptime())

	st.Tick()
	assert.Equal(t, uint32(6399), clock.Micros())

	// Handled straight away: nothing extra is added
	require.True(t, regs.Underflow())
	st.Tick()
	assert.Equal(t, uint32(7000), clock.Micros())
}

func TestDelayWithLateTicks(t *testing.T) {
	regs := new(SoftRegisters)
	var st *SysTick
	var cycles uint32
	tickDue := false

	// Each poll runs the counter 300 cycles; a tick raised during a poll
	// is only handled at the start of the next one.
	yield := YieldFunc(func() {
		if tickDue {
			st.Tick()
			tickDue = false
		}
		for i := 0; i < 300; i++ {
			cycles++
			if cur := regs.Current(); cur > 0 {
				regs.SetCurrent(cur - 1)
			} else if regs.Underflow() {
				tickDue = true
			}
		}
	})

	st, err := New(regs, nil, Config{CoreHz: 1000000, Yielder: yield})
	require.NoError(t, err)
	st.Init()
	regs.SetCurrent(399) // 600us into the first millisecond

	st.Delay(50)
	assert.GreaterOrEqual(t, cycles, uint32(50000))
	assert.Less(t, cycles, uint32(50300))
}
