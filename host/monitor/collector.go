package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gotick/protocol"
)

// ErrStreamIdle is returned by Collect when the reader keeps coming back
// empty.
var ErrStreamIdle = errors.New("report stream went idle")

// DefaultMaxIdleReads is 10s of silence at the serial package's default
// idle timeout.
const DefaultMaxIdleReads = 50

// now is a closure used to produce the current time.
// By default, time.Now is used.
type now func() time.Time

// ReportFunc observes each decoded report and the Tracker's verdict on it
type ReportFunc func(r protocol.Report, err error)

// Collector reads a report stream and feeds a Tracker.
type Collector struct {
	tracker  *Tracker
	decoder  *protocol.Decoder
	now      now
	onReport ReportFunc

	// MaxIdleReads is how many reads in a row may return no data before
	// Collect gives up
	MaxIdleReads int
}

// NewCollector creates a Collector for t. onReport may be nil.
func NewCollector(t *Tracker, onReport ReportFunc) *Collector {
	return &Collector{
		tracker:      t,
		decoder:      protocol.NewDecoder(),
		now:          time.Now,
		onReport:     onReport,
		MaxIdleReads: DefaultMaxIdleReads,
	}
}

// Collect reads from r until the Tracker holds limit samples (limit <= 0
// means no limit) or ctx is done. An empty read with io.EOF is a quiet
// line, as returned by a serial read timeout; after MaxIdleReads of them
// in a row Collect returns ErrStreamIdle.
func (c *Collector) Collect(ctx context.Context, r io.Reader, limit int) error {
	buf := make([]byte, 256)
	idle := 0
	for limit <= 0 || c.tracker.Len() < limit {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.Read(buf)
		if n > 0 {
			idle = 0
			at := c.now()
			for _, report := range c.decoder.Feed(buf[:n]) {
				addErr := c.tracker.Add(at, report)
				if c.onReport != nil {
					c.onReport(report, addErr)
				}
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read reports: %w", err)
		}
		if n == 0 {
			idle++
			if idle >= c.MaxIdleReads {
				return fmt.Errorf("%w after %d empty reads", ErrStreamIdle, idle)
			}
		}
	}
	return nil
}

// Dropped returns the number of corrupt blocks skipped so far
func (c *Collector) Dropped() int {
	return c.decoder.Dropped
}
