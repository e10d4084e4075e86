package protocol

import "sync/atomic"

// ErrorHandler is called for every discarded frame.
type ErrorHandler func(err error, data []byte)

// Receiver assembles command frames from a byte-oriented line using
// receive-to-idle semantics: a frame completes when FrameSize bytes have
// arrived or when the line goes idle. Completed frames are validated and
// posted to a Mailbox; anything else is discarded and reception re-arms.
//
// Feed and Idle must be called from a single receive context. Counters are
// safe to read from any goroutine.
type Receiver struct {
	buf     [FrameSize]byte
	n       int
	mailbox *Mailbox
	onError ErrorHandler

	frames    uint32 // atomic
	discarded uint32 // atomic
}

// NewReceiver creates a Receiver posting valid frames to mailbox.
func NewReceiver(mailbox *Mailbox) *Receiver {
	return &Receiver{mailbox: mailbox}
}

// SetErrorHandler sets a callback for discarded frames.
func (r *Receiver) SetErrorHandler(h ErrorHandler) {
	r.onError = h
}

// Feed consumes received bytes.
func (r *Receiver) Feed(data []byte) {
	for len(data) > 0 {
		c := copy(r.buf[r.n:], data)
		r.n += c
		data = data[c:]
		if r.n == FrameSize {
			r.complete()
		}
	}
}

// Idle signals that the line went idle. A partial frame is discarded.
func (r *Receiver) Idle() {
	if r.n > 0 {
		r.complete()
	}
}

// Reset drops any partially received frame.
func (r *Receiver) Reset() {
	r.n = 0
}

// Frames returns the number of frames posted to the mailbox.
func (r *Receiver) Frames() uint32 {
	return atomic.LoadUint32(&r.frames)
}

// Discarded returns the number of framing errors.
func (r *Receiver) Discarded() uint32 {
	return atomic.LoadUint32(&r.discarded)
}

func (r *Receiver) complete() {
	data := r.buf[:r.n]
	// Re-arm before handing off
	r.n = 0

	err := validateFrame(data)
	if err != nil {
		atomic.AddUint32(&r.discarded, 1)
		if r.onError != nil {
			r.onError(err, data)
		}
		return
	}

	var frame [FrameSize]byte
	copy(frame[:], data)
	r.mailbox.Put(frame)
	atomic.AddUint32(&r.frames, 1)
}

func validateFrame(data []byte) error {
	if len(data) != FrameSize {
		return ErrFrameLength
	}
	if data[FramePositionPreamble] != Preamble {
		return ErrPreamble
	}
	return nil
}
