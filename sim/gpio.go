package sim

import (
	"fmt"

	"pulselab/core"
)

// PinWrite is one recorded output change.
type PinWrite struct {
	At    uint64 // virtual time in microseconds
	Pin   core.GPIOPin
	Value bool
}

// GPIO is a core.GPIODriver that records every write against the clock.
type GPIO struct {
	clock      *Clock
	configured map[core.GPIOPin]bool
	levels     map[core.GPIOPin]bool
	log        []PinWrite
}

// NewGPIO creates a recording GPIO driver.
func NewGPIO(clock *Clock) *GPIO {
	return &GPIO{
		clock:      clock,
		configured: make(map[core.GPIOPin]bool),
		levels:     make(map[core.GPIOPin]bool),
	}
}

// ConfigureOutput marks a pin as an output.
func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.configured[pin] = true
	return nil
}

// SetPin records a write to a configured output.
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if !g.configured[pin] {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	g.levels[pin] = value
	g.log = append(g.log, PinWrite{At: g.clock.Now(), Pin: pin, Value: value})
	return nil
}

// Level returns the current level of a pin.
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.levels[pin]
}

// Writes returns the recorded writes.
func (g *GPIO) Writes() []PinWrite {
	return g.log
}

// ResetLog clears the recorded writes, keeping pin levels.
func (g *GPIO) ResetLog() {
	g.log = nil
}

// BridgeState is the level of the four bridge outputs.
type BridgeState struct {
	DriveLeft   bool
	EnableLeft  bool
	DriveRight  bool
	EnableRight bool
}

// Bridge configurations produced by the sequencer
var (
	BridgePositive = BridgeState{DriveLeft: true, EnableLeft: true, DriveRight: false, EnableRight: true}
	BridgeNegative = BridgeState{DriveLeft: false, EnableLeft: true, DriveRight: true, EnableRight: true}
	BridgeOff      = BridgeState{}
)

func (s BridgeState) String() string {
	switch s {
	case BridgePositive:
		return "positive"
	case BridgeNegative:
		return "negative"
	case BridgeOff:
		return "off"
	}
	return fmt.Sprintf("DL=%t EL=%t DR=%t ER=%t", s.DriveLeft, s.EnableLeft, s.DriveRight, s.EnableRight)
}

// Transition is the bridge state after all writes at one instant.
type Transition struct {
	At    uint64
	State BridgeState
}

// Bridge returns the current state of the bridge pins.
func (g *GPIO) Bridge(pins core.BridgePins) BridgeState {
	return BridgeState{
		DriveLeft:   g.levels[pins.DriveLeft],
		EnableLeft:  g.levels[pins.EnableLeft],
		DriveRight:  g.levels[pins.DriveRight],
		EnableRight: g.levels[pins.EnableRight],
	}
}

// Transitions groups the recorded writes by instant and returns the bridge
// state after each group. Levels before the first recorded write are taken
// as low.
func (g *GPIO) Transitions(pins core.BridgePins) []Transition {
	var out []Transition
	var state BridgeState
	for i, w := range g.log {
		switch w.Pin {
		case pins.DriveLeft:
			state.DriveLeft = w.Value
		case pins.EnableLeft:
			state.EnableLeft = w.Value
		case pins.DriveRight:
			state.DriveRight = w.Value
		case pins.EnableRight:
			state.EnableRight = w.Value
		}
		if i == len(g.log)-1 || g.log[i+1].At != w.At {
			out = append(out, Transition{At: w.At, State: state})
		}
	}
	return out
}
