package core

import "sync/atomic"

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error
}

// BridgeDriver drives the four outputs of the full bridge.
// Implementations must not block; they are called from interrupt context.
type BridgeDriver interface {
	DriveLeft(on bool)
	EnableLeft(on bool)
	DriveRight(on bool)
	EnableRight(on bool)
}

// BridgePins maps the bridge outputs to GPIO pins.
type BridgePins struct {
	DriveLeft   GPIOPin
	EnableLeft  GPIOPin
	DriveRight  GPIOPin
	EnableRight GPIOPin
}

// PinBridge implements BridgeDriver on top of a GPIODriver.
type PinBridge struct {
	gpio   GPIODriver
	pins   BridgePins
	errors uint32 // atomic
}

// NewPinBridge configures the four bridge pins as outputs, driven low.
func NewPinBridge(gpio GPIODriver, pins BridgePins) (*PinBridge, error) {
	for _, pin := range []GPIOPin{pins.DriveLeft, pins.EnableLeft, pins.DriveRight, pins.EnableRight} {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	return &PinBridge{gpio: gpio, pins: pins}, nil
}

func (b *PinBridge) DriveLeft(on bool)   { b.set(b.pins.DriveLeft, on) }
func (b *PinBridge) EnableLeft(on bool)  { b.set(b.pins.EnableLeft, on) }
func (b *PinBridge) DriveRight(on bool)  { b.set(b.pins.DriveRight, on) }
func (b *PinBridge) EnableRight(on bool) { b.set(b.pins.EnableRight, on) }

// Errors returns the number of failed pin writes.
func (b *PinBridge) Errors() uint32 {
	return atomic.LoadUint32(&b.errors)
}

func (b *PinBridge) set(pin GPIOPin, on bool) {
	// Interrupt context: count failures, never propagate
	if err := b.gpio.SetPin(pin, on); err != nil {
		atomic.AddUint32(&b.errors, 1)
	}
}

// positivePulse: left high side and right low side conduct.
func positivePulse(b BridgeDriver) {
	b.DriveLeft(true)
	b.EnableLeft(true)
	b.DriveRight(false)
	b.EnableRight(true)
}

// negativePulse mirrors positivePulse.
func negativePulse(b BridgeDriver) {
	b.DriveLeft(false)
	b.EnableLeft(true)
	b.DriveRight(true)
	b.EnableRight(true)
}

func allOff(b BridgeDriver) {
	b.EnableRight(false)
	b.EnableLeft(false)
	b.DriveRight(false)
	b.DriveLeft(false)
}
