// Package protocol implements the fixed-size binary frame protocol spoken
// between the pulse sequencer and its host controller.
package protocol

// Version represents the pulselab firmware version
const Version = "0.1.0"

// Frame layout constants
const (
	FrameSize = 5    // Every command and response frame is exactly 5 bytes
	Preamble  = 0xFF // Sentinel at offset 0

	FramePositionPreamble = 0
	FramePositionCommand  = 1
	FramePositionValueLo  = 2
	FramePositionValueHi  = 3
	FramePositionFlags    = 4
)

// Command byte layout
const (
	OpMask      = 0xF0 // Upper nibble selects the operation family
	ChannelMask = 0x01 // Bit 0 selects the timer channel
)

// FlagHardExit in a STOP frame asks for a hard exit instead of a soft one.
const FlagHardExit = 0x01
