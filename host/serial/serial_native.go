//go:build !wasm

package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// reportPort reads reports through tarm/serial
type reportPort struct {
	port   *serial.Port
	device string
}

// Open opens the report stream described by cfg.
func Open(cfg *Config) (Port, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.IdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Device, err)
	}
	return &reportPort{port: port, device: cfg.Device}, nil
}

func (p *reportPort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *reportPort) Discard() error {
	if err := p.port.Flush(); err != nil {
		return fmt.Errorf("failed to discard input on %s: %w", p.device, err)
	}
	return nil
}

func (p *reportPort) Close() error {
	return p.port.Close()
}
