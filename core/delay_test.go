package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/chronon"
)

// simClock is a Clock driven by a chronon.FakeClock. Micros starts at
// offset and only moves when the test advances the fake clock.
type simClock struct {
	fc     *chronon.FakeClock
	epoch  time.Time
	offset uint32

	reads  int
	delays []uint32
}

func newSimClock(offset uint32) *simClock {
	epoch := time.Now()
	return &simClock{
		fc:     chronon.NewFakeClock(epoch),
		epoch:  epoch,
		offset: offset,
	}
}

func (c *simClock) Micros() uint32 {
	c.reads++
	return c.offset + uint32(c.fc.Now().Sub(c.epoch)/time.Microsecond)
}

func (c *simClock) DelayMicros(us uint32) {
	c.delays = append(c.delays, us)
	c.advance(us)
}

func (c *simClock) advance(us uint32) {
	c.fc.Add(time.Duration(us) * time.Microsecond)
}

// elapsed is the simulated time since the clock was created
func (c *simClock) elapsed() uint32 {
	return uint32(c.fc.Now().Sub(c.epoch) / time.Microsecond)
}

type DelayTestSuite struct {
	suite.Suite

	clock  *simClock
	yields int
	st     *SysTick
}

// setup builds a driver whose Yielder advances the simulated clock by
// perYield microseconds on every call.
func (suite *DelayTestSuite) setup(offset, perYield uint32) {
	suite.clock = newSimClock(offset)
	suite.yields = 0

	st, err := New(new(SoftRegisters), suite.clock, Config{
		CoreHz: 72000000,
		Yielder: YieldFunc(func() {
			suite.yields++
			suite.clock.advance(perYield)
		}),
	})
	suite.Require().NoError(err)
	suite.st = st
}

func (suite *DelayTestSuite) TestZero() {
	suite.setup(0, 1000)
	suite.st.Delay(0)

	suite.Zero(suite.yields)
	suite.Zero(suite.clock.reads)
	suite.Zero(suite.clock.elapsed())
}

func (suite *DelayTestSuite) TestOneMillisecondPerPoll() {
	suite.setup(12345, 1000)
	suite.st.Delay(5)

	suite.GreaterOrEqual(suite.yields, 5)
	suite.GreaterOrEqual(suite.clock.elapsed(), uint32(5000))
	suite.Equal(uint32(5000), suite.clock.elapsed())
}

func (suite *DelayTestSuite) TestWraparound() {
	suite.setup(math.MaxUint32-499, 100)
	suite.st.Delay(1)

	suite.Equal(uint32(1000), suite.clock.elapsed())
	suite.Equal(10, suite.yields)
	suite.Equal(uint32(500), suite.clock.Micros(), "source should have wrapped past zero")
}

func (suite *DelayTestSuite) TestNoDrift() {
	// Every poll arrives 300us late. Resetting the anchor to "now" would
	// need ten polls (13000us); the fixed schedule finishes at the first
	// poll past 10000us.
	suite.setup(0, 1300)
	suite.st.Delay(10)

	suite.Equal(8, suite.yields)
	suite.Equal(uint32(10400), suite.clock.elapsed())
}

func (suite *DelayTestSuite) TestReturnsAtFirstPollPastDeadline() {
	testCases := []struct {
		ms   uint32
		step uint32
	}{
		{ms: 1, step: 1},
		{ms: 3, step: 7},
		{ms: 4, step: 250},
		{ms: 2, step: 999},
		{ms: 6, step: 1001},
		{ms: 5, step: 2500},
		{ms: 1, step: 60000},
	}

	for _, tc := range testCases {
		suite.Run(utoa(tc.ms)+"ms/"+utoa(tc.step)+"us", func() {
			suite.setup(math.MaxUint32-3000, tc.step)
			suite.st.Delay(tc.ms)

			want := tc.ms * 1000
			polls := (want + tc.step - 1) / tc.step
			suite.Equal(int(polls), suite.yields)
			suite.Equal(polls*tc.step, suite.clock.elapsed())
		})
	}
}

func (suite *DelayTestSuite) TestDelayDoesNotUseUptime() {
	suite.setup(4500, 1000)
	suite.st.uptime.Store(777)
	suite.st.Delay(20)

	suite.Equal(uint32(777), suite.st.Uptime())
	suite.Equal(uint32(20000), suite.clock.elapsed())

	// The event is stamped from the delay clock, not the tick counter
	events := suite.st.Events().Snapshot()
	suite.Require().NotEmpty(events)
	last := events[len(events)-1]
	suite.Equal(uint32(4), last.Uptime)
	suite.Equal(uint32(4500), last.Value2)
}

func (suite *DelayTestSuite) TestDelayMicroseconds() {
	suite.setup(0, 0)
	suite.st.DelayMicroseconds(250)
	suite.st.DelayMicroseconds(0)

	suite.Equal([]uint32{250, 0}, suite.clock.delays)
	suite.Equal(uint32(250), suite.clock.elapsed())
	suite.Zero(suite.yields)
}

func (suite *DelayTestSuite) TestRecordsEvent() {
	suite.setup(0, 1000)
	suite.st.Delay(3)

	events := suite.st.Events().Snapshot()
	suite.Require().NotEmpty(events)
	last := events[len(events)-1]
	suite.Equal(uint8(EvtDelay), last.EventType)
	suite.Equal(uint32(3), last.Value1)
}

func TestDelay(t *testing.T) {
	suite.Run(t, new(DelayTestSuite))
}

func TestElapsed(t *testing.T) {
	if got := Elapsed(uint32(500), uint32(math.MaxUint32-499)); got != 1000 {
		t.Errorf("Expected 1000, got %d", got)
	}
	if got := Elapsed(uint8(3), uint8(250)); got != 9 {
		t.Errorf("Expected 9, got %d", got)
	}
	if got := Elapsed(uint64(10), uint64(10)); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}
