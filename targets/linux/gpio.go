//go:build linux

package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"pulselab/core"
)

// PeriphGPIO implements core.GPIODriver on periph.io pins. Pin numbers are
// indexes into the name list given at construction.
type PeriphGPIO struct {
	pins       []gpio.PinIO
	configured []bool
}

// OpenPeriphGPIO initializes the host drivers and resolves the bridge pin
// names in DL, EL, DR, ER order.
func OpenPeriphGPIO(names [4]string) (*PeriphGPIO, core.BridgePins, error) {
	if _, err := host.Init(); err != nil {
		return nil, core.BridgePins{}, fmt.Errorf("periph host init: %w", err)
	}
	return newPeriphGPIO(names[:], gpioreg.ByName)
}

func newPeriphGPIO(names []string, lookup func(string) gpio.PinIO) (*PeriphGPIO, core.BridgePins, error) {
	d := &PeriphGPIO{
		pins:       make([]gpio.PinIO, len(names)),
		configured: make([]bool, len(names)),
	}
	for i, name := range names {
		p := lookup(name)
		if p == nil {
			return nil, core.BridgePins{}, fmt.Errorf("gpio %s: no such pin", name)
		}
		d.pins[i] = p
	}
	return d, core.BridgePins{
		DriveLeft:   0,
		EnableLeft:  1,
		DriveRight:  2,
		EnableRight: 3,
	}, nil
}

// Name returns the registry name of a pin.
func (d *PeriphGPIO) Name(pin core.GPIOPin) string {
	if int(pin) >= len(d.pins) {
		return ""
	}
	return d.pins[pin].Name()
}

// ConfigureOutput configures a pin as a push-pull output driven low
func (d *PeriphGPIO) ConfigureOutput(pin core.GPIOPin) error {
	if int(pin) >= len(d.pins) {
		return fmt.Errorf("gpio %d: out of range", pin)
	}
	if err := d.pins[pin].Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio %s: %w", d.pins[pin].Name(), err)
	}
	d.configured[pin] = true
	return nil
}

// SetPin drives a configured output
func (d *PeriphGPIO) SetPin(pin core.GPIOPin, value bool) error {
	if int(pin) >= len(d.pins) || !d.configured[pin] {
		return fmt.Errorf("gpio %d: not configured as output", pin)
	}
	return d.pins[pin].Out(gpio.Level(value))
}

// Release drives every configured output low
func (d *PeriphGPIO) Release() {
	for i, p := range d.pins {
		if d.configured[i] {
			_ = p.Out(gpio.Low)
		}
	}
}
