// Package serial opens the UART link between the host and the pulse
// sequencer.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is a byte stream to the sequencer. Reads return after the configured
// read timeout with n == 0 when the line is idle.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the sequencer UART
	Baud int

	// Read timeout; also the idle gap that ends a frame
	ReadTimeout time.Duration
}

const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 100 * time.Millisecond
)

var errNoDevice = errors.New("serial: no device configured")

// DefaultConfig returns the sequencer's line settings for a device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Validate fills zero fields with defaults and checks the device name
func (c *Config) Validate() error {
	if c.Device == "" {
		return errNoDevice
	}
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return nil
}
