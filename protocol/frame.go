package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameLength is returned for a frame that is not exactly FrameSize bytes.
	ErrFrameLength = errors.New("invalid frame length")
	// ErrPreamble is returned when offset 0 does not hold the preamble.
	ErrPreamble = errors.New("preamble mismatch")
	// ErrTimeout is returned when no complete response arrives in time.
	ErrTimeout = errors.New("response timeout")
	// ErrUnexpectedResponse is returned when a response does not echo the request.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Op is an operation family, the upper nibble of the command byte.
type Op uint8

const (
	OpSet      Op = 0x10
	OpStart    Op = 0x20
	OpStop     Op = 0x30
	OpReadback Op = 0x40
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "SET"
	case OpStart:
		return "START"
	case OpStop:
		return "STOP"
	case OpReadback:
		return "READBACK"
	}
	return fmt.Sprintf("OP(0x%02X)", uint8(o))
}

// Channel addresses one of the two period timers.
type Channel uint8

const (
	Fast Channel = 0 // Intra-cycle pulse timer, microseconds on the wire
	Slow Channel = 1 // Cycle timer, milliseconds on the wire
)

// Channels lists both timer channels in index order.
var Channels = [2]Channel{Fast, Slow}

func (c Channel) String() string {
	if c == Slow {
		return "T2"
	}
	return "T1"
}

// ChannelFromByte selects a channel from bit 0 of a command byte.
// Even selects Fast, odd selects Slow.
func ChannelFromByte(b byte) Channel {
	return Channel(b & ChannelMask)
}

// Code builds the command byte for an operation addressed to a channel.
func Code(op Op, ch Channel) byte {
	return byte(op) | byte(ch)&ChannelMask
}

// Command is a decoded command frame.
type Command struct {
	Raw     byte // Command byte as received
	Op      Op
	Channel Channel
	Value   uint16
	Flags   uint8
}

// DecodeCommand validates and unpacks a received frame.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) != FrameSize {
		return Command{}, ErrFrameLength
	}
	if buf[FramePositionPreamble] != Preamble {
		return Command{}, ErrPreamble
	}
	raw := buf[FramePositionCommand]
	return Command{
		Raw:     raw,
		Op:      Op(raw & OpMask),
		Channel: ChannelFromByte(raw),
		Value:   uint16(buf[FramePositionValueLo]) | uint16(buf[FramePositionValueHi])<<8,
		Flags:   buf[FramePositionFlags],
	}, nil
}

// EncodeCommand builds a command frame.
func EncodeCommand(op Op, ch Channel, value uint16, flags uint8) [FrameSize]byte {
	return encode(Code(op, ch), value, flags)
}

// Response is a readback reply.
type Response struct {
	Raw     byte // Echoed command byte
	Channel Channel
	Value   uint16
	Flags   uint8
}

// EncodeResponse builds a readback response frame for a channel.
func EncodeResponse(ch Channel, value uint16, flags uint8) [FrameSize]byte {
	return encode(Code(OpReadback, ch), value, flags)
}

// DecodeResponse unpacks a response frame.
func DecodeResponse(buf []byte) (Response, error) {
	cmd, err := DecodeCommand(buf)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Raw:     cmd.Raw,
		Channel: cmd.Channel,
		Value:   cmd.Value,
		Flags:   cmd.Flags,
	}, nil
}

func encode(code byte, value uint16, flags uint8) [FrameSize]byte {
	return [FrameSize]byte{
		Preamble,
		code,
		uint8(value & 0xFF),
		uint8(value >> 8),
		flags,
	}
}

// FormatFrame renders a frame as space separated hex bytes.
func FormatFrame(buf []byte) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(buf)*3)
	for i, b := range buf {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hex[b>>4], hex[b&0x0F])
	}
	return string(out)
}
