package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a sequencer event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Clock  uint64 // Event clock at the time of recording
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStart         = 1  // Run started (v1=target count)
	EvtPulsePositive = 2  // Positive pulse applied (v1=cycle)
	EvtPulseNegative = 3  // Negative pulse applied (v1=cycle)
	EvtPulseOff      = 4  // Bridge off, fast timer parked (v1=cycle)
	EvtCycle         = 5  // New cycle armed (v1=cycle)
	EvtSoftStop      = 6  // Run ended at a cycle boundary (v1=cycles)
	EvtHardStop      = 7  // Immediate stop (v1=phase)
	EvtSet           = 8  // Period applied (v1=channel, v2=ticks)
	EvtFrameError    = 9  // Frame discarded
	EvtUnknownCmd    = 10 // Unknown command byte (v1=byte)
)

// EventName returns a short label for an event type.
func EventName(t uint8) string {
	switch t {
	case EvtStart:
		return "START"
	case EvtPulsePositive:
		return "PULSE_POS"
	case EvtPulseNegative:
		return "PULSE_NEG"
	case EvtPulseOff:
		return "PULSE_OFF"
	case EvtCycle:
		return "CYCLE"
	case EvtSoftStop:
		return "SOFT_STOP"
	case EvtHardStop:
		return "HARD_STOP"
	case EvtSet:
		return "SET"
	case EvtFrameError:
		return "FRAME_ERR"
	case EvtUnknownCmd:
		return "UNKNOWN_CMD"
	}
	return "UNKNOWN"
}

const (
	EventRingSize = 64 // Keep last 64 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = true

	// eventClock timestamps recorded events (set by platform code)
	eventClock = func() uint64 { return 0 }

	// Event ring buffer (non-blocking, written from interrupt context)
	eventRing     [EventRingSize]Event
	eventRingHead uint32 // atomic, total events recorded
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventClock sets the clock used to timestamp events
func SetEventClock(clock func() uint64) {
	eventClock = clock
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call from interrupt context; use RecordEvent there.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer.
// Non-blocking and safe to call from interrupt context.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	idx := (atomic.AddUint32(&eventRingHead, 1) - 1) % EventRingSize
	eventRing[idx] = Event{
		Type:   eventType,
		Clock:  eventClock(),
		Value1: value1,
		Value2: value2,
	}
}

// Events returns the recorded events from oldest to newest.
// Call after the sequencer has stopped for a consistent snapshot.
func Events() []Event {
	head := atomic.LoadUint32(&eventRingHead)
	n := head
	if n > EventRingSize {
		n = EventRingSize
	}
	out := make([]Event, 0, n)
	for i := head - n; i != head; i++ {
		out = append(out, eventRing[i%EventRingSize])
	}
	return out
}

// DumpEvents outputs the event ring through the debug writer
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.Type) +
			" clock=" + utoa64(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	atomic.StoreUint32(&eventRingHead, 0)
}
