// Package monitor checks the uptime reports of a gotick board against the
// host clock.
package monitor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"

	"gotick/core"
	"gotick/protocol"
)

var (
	ErrNonMonotonic     = errors.New("board uptime went backwards")
	ErrNotEnoughSamples = errors.New("not enough samples for a drift fit")
)

// Sample is one report placed on the host timeline.
type Sample struct {
	Host   time.Duration // Host time since the first sample
	Uptime uint64        // Board uptime in ms since the first sample, unwrapped
}

// DriftEstimate is the least-squares fit of board uptime against host time.
type DriftEstimate struct {
	Samples int
	Slope   float64 // Board milliseconds per host millisecond
	Offset  float64 // Intercept in ms
	PPM     float64 // (Slope - 1) in parts per million
	Jitter  float64 // Standard deviation of the residuals in ms
}

// Tracker unwraps the 32-bit uptime counter and accumulates samples.
type Tracker struct {
	started    bool
	first      time.Time
	lastUptime uint32
	lastTicks  uint32
	uptime     uint64
	samples    []Sample

	// NonMonotonic counts reports rejected because uptime went backwards
	NonMonotonic int

	// TickMismatches counts reports whose callback tick count did not
	// advance by the same amount as the uptime counter
	TickMismatches int
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records a report received at host time at. Uptime may wrap past
// 2^32 between reports; a jump of half the range or more is treated as
// going backwards.
func (t *Tracker) Add(at time.Time, r protocol.Report) error {
	if !t.started {
		t.started = true
		t.first = at
		t.lastUptime = r.UptimeMillis
		t.lastTicks = r.Ticks
		t.samples = append(t.samples, Sample{})
		return nil
	}

	delta := core.Elapsed(r.UptimeMillis, t.lastUptime)
	if delta >= 1<<31 {
		t.NonMonotonic++
		return fmt.Errorf("%w: %d after %d", ErrNonMonotonic, r.UptimeMillis, t.lastUptime)
	}
	if core.Elapsed(r.Ticks, t.lastTicks) != delta {
		t.TickMismatches++
	}

	t.uptime += uint64(delta)
	t.lastUptime = r.UptimeMillis
	t.lastTicks = r.Ticks
	t.samples = append(t.samples, Sample{
		Host:   at.Sub(t.first),
		Uptime: t.uptime,
	})
	return nil
}

// Len returns the number of accepted samples
func (t *Tracker) Len() int {
	return len(t.samples)
}

// Uptime returns the unwrapped uptime since the first sample
func (t *Tracker) Uptime() uint64 {
	return t.uptime
}

// Samples returns a copy of the accepted samples
func (t *Tracker) Samples() []Sample {
	return slices.Clone(t.samples)
}

// Fit estimates how fast the board's millisecond counter runs relative to
// the host clock.
func (t *Tracker) Fit() (DriftEstimate, error) {
	if len(t.samples) < 2 || t.samples[len(t.samples)-1].Host == 0 {
		return DriftEstimate{}, ErrNotEnoughSamples
	}

	xs := make([]float64, len(t.samples))
	ys := make([]float64, len(t.samples))
	for i, s := range t.samples {
		xs[i] = float64(s.Host) / float64(time.Millisecond)
		ys[i] = float64(s.Uptime)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	residuals := make([]float64, len(xs))
	for i := range xs {
		residuals[i] = ys[i] - (alpha + beta*xs[i])
	}

	return DriftEstimate{
		Samples: len(t.samples),
		Slope:   beta,
		Offset:  alpha,
		PPM:     (beta - 1) * 1e6,
		Jitter:  stat.StdDev(residuals, nil),
	}, nil
}
