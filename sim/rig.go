package sim

import (
	"pulselab/core"
	"pulselab/protocol"
)

// DefaultPins is the bridge pin map used by the rig.
var DefaultPins = core.BridgePins{
	DriveLeft:   8,
	EnableLeft:  7,
	DriveRight:  9,
	EnableRight: 6,
}

// Rig wires a complete firmware instance to virtual hardware.
type Rig struct {
	Clock    *Clock
	GPIO     *GPIO
	Fast     *Timer
	Slow     *Timer
	Mailbox  *protocol.Mailbox
	Receiver *protocol.Receiver
	Host     *HostLink
	Seq      *core.Sequencer
	Firmware *core.Firmware
}

// NewRig builds a rig with the sequencer's native tick resolutions.
func NewRig() *Rig {
	clock := NewClock()
	gpio := NewGPIO(clock)
	bridge, err := core.NewPinBridge(gpio, DefaultPins)
	if err != nil {
		// The recording driver accepts every pin
		panic(err)
	}
	gpio.ResetLog()

	fast := clock.NewTimer(core.FastTickUS)
	slow := clock.NewTimer(core.SlowTickUS)
	seq := core.NewSequencer(fast, slow, bridge)

	mailbox := &protocol.Mailbox{}
	host := &HostLink{}
	fw := core.NewFirmware(seq, mailbox, host)

	core.SetEventClock(clock.Now)

	return &Rig{
		Clock:    clock,
		GPIO:     gpio,
		Fast:     fast,
		Slow:     slow,
		Mailbox:  mailbox,
		Receiver: protocol.NewReceiver(mailbox),
		Host:     host,
		Seq:      seq,
		Firmware: fw,
	}
}

// Send delivers a command frame over the virtual line and lets the main
// loop process it.
func (r *Rig) Send(op protocol.Op, ch protocol.Channel, value uint16, flags uint8) error {
	frame := protocol.EncodeCommand(op, ch, value, flags)
	r.Receiver.Feed(frame[:])
	return r.Firmware.Poll()
}

// Transitions returns the recorded bridge transitions.
func (r *Rig) Transitions() []Transition {
	return r.GPIO.Transitions(DefaultPins)
}

// HostLink collects transmitted response frames.
type HostLink struct {
	Frames [][protocol.FrameSize]byte
}

// Transmit implements core.Transmitter.
func (h *HostLink) Transmit(frame []byte) error {
	if len(frame) != protocol.FrameSize {
		return protocol.ErrFrameLength
	}
	var f [protocol.FrameSize]byte
	copy(f[:], frame)
	h.Frames = append(h.Frames, f)
	return nil
}

// Last returns the most recent response.
func (h *HostLink) Last() (protocol.Response, error) {
	if len(h.Frames) == 0 {
		return protocol.Response{}, protocol.ErrFrameLength
	}
	f := h.Frames[len(h.Frames)-1]
	return protocol.DecodeResponse(f[:])
}
