package protocol

import "sync/atomic"

// Mailbox is a single-slot, latest-wins handoff of received frames from the
// receive context to the command processing loop. Put never blocks; a frame
// that was not taken before the next Put is overwritten.
type Mailbox struct {
	slot        atomic.Pointer[[FrameSize]byte]
	overwritten uint32 // atomic
}

// Put stores a frame, replacing any unprocessed one.
// Returns true if an unprocessed frame was dropped.
func (m *Mailbox) Put(frame [FrameSize]byte) bool {
	f := frame
	if m.slot.Swap(&f) != nil {
		atomic.AddUint32(&m.overwritten, 1)
		return true
	}
	return false
}

// Take removes and returns the pending frame, if any.
func (m *Mailbox) Take() ([FrameSize]byte, bool) {
	f := m.slot.Swap(nil)
	if f == nil {
		return [FrameSize]byte{}, false
	}
	return *f, true
}

// Pending reports whether a frame is waiting.
func (m *Mailbox) Pending() bool {
	return m.slot.Load() != nil
}

// Overwritten returns how many frames were replaced before being taken.
func (m *Mailbox) Overwritten() uint32 {
	return atomic.LoadUint32(&m.overwritten)
}
