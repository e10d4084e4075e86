package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiverCompleteFrame(t *testing.T) {
	var mb Mailbox
	r := NewReceiver(&mb)

	r.Feed([]byte{0xFF, 0x10})
	assert.False(t, mb.Pending())
	r.Feed([]byte{0xF4, 0x01, 0x00})

	frame, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, [FrameSize]byte{0xFF, 0x10, 0xF4, 0x01, 0x00}, frame)
	assert.Equal(t, uint32(1), r.Frames())
	assert.Equal(t, uint32(0), r.Discarded())
}

func TestReceiverBackToBackFrames(t *testing.T) {
	var mb Mailbox
	r := NewReceiver(&mb)

	a := EncodeCommand(OpSet, Fast, 500, 0)
	b := EncodeCommand(OpSet, Slow, 50, 0)
	r.Feed(append(a[:], b[:]...))

	// Only the latest unprocessed frame is held
	frame, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, b, frame)
	assert.Equal(t, uint32(2), r.Frames())
	assert.Equal(t, uint32(1), mb.Overwritten())
}

func TestReceiverDiscardsBadFrames(t *testing.T) {
	var mb Mailbox
	r := NewReceiver(&mb)

	var errs []error
	r.SetErrorHandler(func(err error, data []byte) {
		errs = append(errs, err)
	})

	// Short frame terminated by idle line
	r.Feed([]byte{0xFF, 0x10, 0x01})
	r.Idle()

	// Wrong preamble
	r.Feed([]byte{0xAA, 0x10, 0x01, 0x00, 0x00})

	assert.False(t, mb.Pending())
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrFrameLength)
	assert.ErrorIs(t, errs[1], ErrPreamble)
	assert.Equal(t, uint32(2), r.Discarded())

	// Reception is re-armed after each discard
	r.Feed([]byte{0xFF, 0x41, 0x00, 0x00, 0x00})
	_, ok := mb.Take()
	assert.True(t, ok)
}

func TestReceiverIdleWithoutData(t *testing.T) {
	var mb Mailbox
	r := NewReceiver(&mb)
	r.Idle()
	assert.Equal(t, uint32(0), r.Discarded())
}
