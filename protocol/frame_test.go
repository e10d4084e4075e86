package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  Command
	}{
		{
			name:  "set fast",
			frame: []byte{0xFF, 0x10, 0xF4, 0x01, 0x00},
			want:  Command{Raw: 0x10, Op: OpSet, Channel: Fast, Value: 500},
		},
		{
			name:  "set slow with flags",
			frame: []byte{0xFF, 0x11, 0x10, 0x27, 0x5A},
			want:  Command{Raw: 0x11, Op: OpSet, Channel: Slow, Value: 10000, Flags: 0x5A},
		},
		{
			name:  "start",
			frame: []byte{0xFF, 0x20, 0x03, 0x00, 0x00},
			want:  Command{Raw: 0x20, Op: OpStart, Channel: Fast, Value: 3},
		},
		{
			name:  "stop hard",
			frame: []byte{0xFF, 0x31, 0x00, 0x00, 0x01},
			want:  Command{Raw: 0x31, Op: OpStop, Channel: Slow, Flags: FlagHardExit},
		},
		{
			name:  "readback",
			frame: []byte{0xFF, 0x41, 0x00, 0x00, 0x00},
			want:  Command{Raw: 0x41, Op: OpReadback, Channel: Slow},
		},
		{
			name:  "unknown op still decodes",
			frame: []byte{0xFF, 0x55, 0x00, 0x00, 0x00},
			want:  Command{Raw: 0x55, Op: Op(0x50), Channel: Slow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	_, err := DecodeCommand([]byte{0xFF, 0x10, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrFrameLength)

	_, err = DecodeCommand([]byte{0xFF, 0x10, 0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrFrameLength)

	_, err = DecodeCommand([]byte{0xFE, 0x10, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrPreamble)
}

func TestEncodeCommand(t *testing.T) {
	frame := EncodeCommand(OpSet, Slow, 50, 0x00)
	assert.Equal(t, [FrameSize]byte{0xFF, 0x11, 0x32, 0x00, 0x00}, frame)

	frame = EncodeCommand(OpStart, Fast, 0x1234, 0x07)
	assert.Equal(t, [FrameSize]byte{0xFF, 0x20, 0x34, 0x12, 0x07}, frame)
}

func TestEncodeResponse(t *testing.T) {
	frame := EncodeResponse(Fast, 500, 0x00)
	assert.Equal(t, [FrameSize]byte{0xFF, 0x40, 0xF4, 0x01, 0x00}, frame)

	rf := EncodeResponse(Slow, 10000, 0x03)
	resp, err := DecodeResponse(rf[:])
	require.NoError(t, err)
	assert.Equal(t, Response{Raw: 0x41, Channel: Slow, Value: 10000, Flags: 0x03}, resp)
}

func TestChannelFromByte(t *testing.T) {
	for b := 0; b < 256; b++ {
		want := Fast
		if b%2 == 1 {
			want = Slow
		}
		assert.Equal(t, want, ChannelFromByte(byte(b)), "byte 0x%02X", b)
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "SET", OpSet.String())
	assert.Equal(t, "READBACK", OpReadback.String())
	assert.Equal(t, "OP(0x70)", Op(0x70).String())
}

func TestFormatFrame(t *testing.T) {
	assert.Equal(t, "FF 10 F4 01 00", FormatFrame([]byte{0xFF, 0x10, 0xF4, 0x01, 0x00}))
	assert.Equal(t, "", FormatFrame(nil))
}
