// Package serial opens the line a gotick board streams its uptime reports
// on: USB CDC on RP2 boards, or a plain UART.
package serial

import (
	"errors"
	"io"
	"time"
)

var (
	ErrNilConfig = errors.New("serial config cannot be nil")
	ErrNoDevice  = errors.New("no serial device given")
)

// DefaultIdleTimeout bounds each read so that a silent board does not
// block the monitor forever.
const DefaultIdleTimeout = 200 * time.Millisecond

// Port is the receive side of a report stream. The monitor never writes
// to the board.
type Port interface {
	// Read returns 0 and io.EOF when nothing arrived within the idle
	// timeout
	io.ReadCloser

	// Discard drops whatever the board sent before the monitor attached,
	// usually a partial block
	Discard() error
}

// Config selects the device and line settings.
type Config struct {
	// Device path, e.g. /dev/ttyACM0 or COM3
	Device string

	// Baud only matters for a UART; USB CDC ignores it
	Baud int

	// IdleTimeout bounds each Read. Zero blocks until data arrives.
	IdleTimeout time.Duration
}

// DefaultConfig matches the firmware's USB CDC report stream on device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		IdleTimeout: DefaultIdleTimeout,
	}
}

func (c *Config) validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Device == "" {
		return ErrNoDevice
	}
	return nil
}
