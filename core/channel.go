package core

import "pulselab/protocol"

// Channel identifies one of the two period timers.
type Channel = protocol.Channel

const (
	Fast = protocol.Fast
	Slow = protocol.Slow
)

// ChannelSpec describes the wire unit, valid range and tick resolution of a
// timer channel.
type ChannelSpec struct {
	Unit     string // Wire unit label
	Min      uint16 // Smallest accepted value in wire units
	Max      uint16 // Largest accepted value in wire units
	TickUS   uint32 // Hardware tick length in microseconds
	MinTicks uint32
	MaxTicks uint32
}

// Timer bounds
const (
	FastUSMin = 10
	FastUSMax = 1000
	SlowMSMin = 1
	SlowMSMax = 10000

	FastTickUS = 10  // Fast timer: 10 µs per tick
	SlowTickUS = 100 // Slow timer: 100 µs per tick, 10 ticks per ms

	SlowMinTicks = 5      // Timer capacity floor (0.5 ms)
	SlowMaxTicks = 100000 // 10 s
)

var channelSpecs = [2]ChannelSpec{
	Fast: {Unit: "us", Min: FastUSMin, Max: FastUSMax, TickUS: FastTickUS, MinTicks: 1, MaxTicks: FastUSMax / FastTickUS},
	Slow: {Unit: "ms", Min: SlowMSMin, Max: SlowMSMax, TickUS: SlowTickUS, MinTicks: SlowMinTicks, MaxTicks: SlowMaxTicks},
}

// Spec returns the fixed description of a channel.
func Spec(ch Channel) ChannelSpec {
	return channelSpecs[ch&protocol.ChannelMask]
}

// Clamp limits a wire value to the channel's valid range.
func Clamp(ch Channel, value uint16) uint16 {
	s := Spec(ch)
	if value < s.Min {
		return s.Min
	}
	if value > s.Max {
		return s.Max
	}
	return value
}

// PeriodTicks converts a wire value to a timer period in ticks.
// The value is clamped first; out-of-range input is never rejected.
func PeriodTicks(ch Channel, value uint16) uint32 {
	v := uint32(Clamp(ch, value))
	s := Spec(ch)

	var ticks uint32
	if ch == Fast {
		// Round to the nearest 10 µs tick
		ticks = (v + FastTickUS/2) / FastTickUS
	} else {
		ticks = v * (1000 / SlowTickUS)
	}

	if ticks < s.MinTicks {
		ticks = s.MinTicks
	}
	if ticks > s.MaxTicks {
		ticks = s.MaxTicks
	}
	return ticks
}
