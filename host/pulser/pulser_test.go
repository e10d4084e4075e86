package pulser

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselab/core"
	"pulselab/protocol"
	"pulselab/sim"
)

// rigPort connects the client to a simulated sequencer. Firmware log lines
// are echoed onto the line ahead of responses, as the device does.
type rigPort struct {
	rig  *sim.Rig
	out  bytes.Buffer
	sent int
	logs []string
}

func newRigPort() *rigPort {
	p := &rigPort{rig: sim.NewRig()}
	core.SetDebugWriter(func(s string) { p.logs = append(p.logs, s) })
	return p
}

func (p *rigPort) Write(b []byte) (int, error) {
	p.rig.Receiver.Feed(b)
	p.rig.Receiver.Idle()
	p.logs = nil
	err := p.rig.Firmware.Poll()
	for _, l := range p.logs {
		p.out.WriteString(l + "\r\n")
	}
	for ; p.sent < len(p.rig.Host.Frames); p.sent++ {
		p.out.Write(p.rig.Host.Frames[p.sent][:])
	}
	if errors.Is(err, core.ErrHalted) {
		err = nil
	}
	return len(b), err
}

func (p *rigPort) Read(b []byte) (int, error) {
	if p.out.Len() == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	return p.out.Read(b)
}

func TestClientAgainstSequencer(t *testing.T) {
	t.Cleanup(func() { core.SetDebugWriter(func(string) {}) })
	port := newRigPort()
	c := New(port, 100*time.Millisecond)

	require.NoError(t, c.SetTimer(protocol.Fast, 500))
	require.NoError(t, c.SetTimer(protocol.Slow, 50))
	require.NoError(t, c.Start(3))
	assert.True(t, port.rig.Seq.Running())
	assert.Equal(t, uint32(3), port.rig.Seq.Target())

	v, flags, err := c.Readback(protocol.Fast)
	require.NoError(t, err)
	assert.Equal(t, uint16(500), v)
	assert.Equal(t, uint8(0), flags)

	v, _, err = c.Readback(protocol.Slow)
	require.NoError(t, err)
	assert.Equal(t, uint16(50), v)

	require.NoError(t, c.Stop(false))
	assert.Equal(t, core.ExitSoft, port.rig.Seq.Exit())

	require.NoError(t, c.Stop(true))
	assert.Equal(t, core.StateIdle, port.rig.Seq.State())
	assert.True(t, port.rig.Firmware.Halted())
}

func TestClientReadbackClamped(t *testing.T) {
	t.Cleanup(func() { core.SetDebugWriter(func(string) {}) })
	c := New(newRigPort(), 100*time.Millisecond)

	require.NoError(t, c.SetTimer(protocol.Fast, 5))
	v, _, err := c.Readback(protocol.Fast)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), v)
}

// scriptPort replies with fixed bytes to every write
type scriptPort struct {
	reply   []byte
	pending bytes.Buffer
	written [][]byte
	err     error
}

func (p *scriptPort) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.written = append(p.written, append([]byte(nil), b...))
	p.pending.Write(p.reply)
	return len(b), nil
}

func (p *scriptPort) Read(b []byte) (int, error) {
	if p.pending.Len() == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	return p.pending.Read(b)
}

func TestClientFrames(t *testing.T) {
	port := &scriptPort{}
	c := New(port, 10*time.Millisecond)

	require.NoError(t, c.SetTimer(protocol.Slow, 0x1234))
	require.NoError(t, c.Start(0))
	require.NoError(t, c.Stop(true))

	assert.Equal(t, [][]byte{
		{0xFF, 0x11, 0x34, 0x12, 0x00},
		{0xFF, 0x20, 0x00, 0x00, 0x00},
		{0xFF, 0x30, 0x00, 0x00, 0x01},
	}, port.written)
}

func TestClientReadbackResyncs(t *testing.T) {
	port := &scriptPort{reply: append([]byte("CMD: READBACK T2 OK\r\n"), 0xFF, 0x41, 0x0A, 0x00, 0x07)}
	c := New(port, 50*time.Millisecond)

	v, flags, err := c.Readback(protocol.Slow)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), v)
	assert.Equal(t, uint8(7), flags)
}

func TestClientReadbackWrongEcho(t *testing.T) {
	port := &scriptPort{reply: []byte{0xFF, 0x40, 0x0A, 0x00, 0x00}}
	c := New(port, 50*time.Millisecond)

	_, _, err := c.Readback(protocol.Slow)
	assert.ErrorIs(t, err, protocol.ErrUnexpectedResponse)
}

func TestClientReadbackTimeout(t *testing.T) {
	port := &scriptPort{reply: []byte{0xFF, 0x41}}
	c := New(port, 20*time.Millisecond)

	_, _, err := c.Readback(protocol.Slow)
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestClientWriteError(t *testing.T) {
	port := &scriptPort{err: errors.New("port closed")}
	c := New(port, 0)

	err := c.SetTimer(protocol.Fast, 100)
	assert.EqualError(t, err, "SET T1: port closed")
	assert.NoError(t, c.Close())
}

func TestClientDrain(t *testing.T) {
	port := &scriptPort{}
	port.pending.WriteString("CMD: START (seq) OK\r\n")
	c := New(port, 0)

	text, err := c.Drain(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "CMD: START (seq) OK\r\n", text)
}
