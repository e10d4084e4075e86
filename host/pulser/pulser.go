// Package pulser is the host-side client of the pulse sequencer. It builds
// command frames, writes them to the serial link and reads readback
// responses, skipping any text the firmware prints on the same line.
package pulser

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"pulselab/host/serial"
	"pulselab/protocol"
)

// DefaultTimeout bounds the wait for a readback response
const DefaultTimeout = 2 * time.Second

// Client talks to one sequencer
type Client struct {
	mu      sync.Mutex
	port    io.ReadWriter
	rx      *protocol.FifoBuffer
	timeout time.Duration
}

// New creates a client on an open port. A zero timeout selects
// DefaultTimeout.
func New(port io.ReadWriter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		port:    port,
		rx:      protocol.NewFifoBuffer(256),
		timeout: timeout,
	}
}

// Connect opens a serial device with the sequencer's line settings
func Connect(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	timeout := DefaultTimeout
	if cfg.ReadTimeout > timeout {
		timeout = cfg.ReadTimeout
	}
	return New(port, timeout), nil
}

// Close closes the port if it is closable
func (c *Client) Close() error {
	if closer, ok := c.port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SetTimer programs a channel period: microseconds for Fast, milliseconds
// for Slow. The firmware clamps out-of-range values; read back to see the
// applied value.
func (c *Client) SetTimer(ch protocol.Channel, period uint16) error {
	return c.send(protocol.OpSet, ch, period, 0)
}

// Start starts the double-pulse sequence. count is latched by the firmware
// but does not end the run; zero means run until stopped.
func (c *Client) Start(count uint16) error {
	return c.send(protocol.OpStart, protocol.Fast, count, 0)
}

// Stop requests a soft stop at the next cycle boundary, or with hard set an
// immediate stop that also halts command processing on the device.
func (c *Client) Stop(hard bool) error {
	var flags uint8
	if hard {
		flags = protocol.FlagHardExit
	}
	return c.send(protocol.OpStop, protocol.Fast, 0, flags)
}

// Readback returns the applied period and flags of a channel
func (c *Client) Readback(ch protocol.Channel) (uint16, uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rx.Reset()
	frame := protocol.EncodeCommand(protocol.OpReadback, ch, 0, 0)
	if err := c.write(frame[:]); err != nil {
		return 0, 0, err
	}

	buf, err := c.readFrame(time.Now().Add(c.timeout))
	if err != nil {
		return 0, 0, fmt.Errorf("readback %s: %w", ch, err)
	}
	resp, err := protocol.DecodeResponse(buf[:])
	if err != nil {
		return 0, 0, fmt.Errorf("readback %s: %w", ch, err)
	}
	if resp.Raw != frame[protocol.FramePositionCommand] {
		return 0, 0, fmt.Errorf("readback %s: %w: got 0x%02X", ch, protocol.ErrUnexpectedResponse, resp.Raw)
	}
	return resp.Value, resp.Flags, nil
}

// Drain collects whatever the device prints during d and returns it as
// text. Used to show the firmware's log lines after a command.
func (c *Client) Drain(d time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return string(out), err
		}
	}
	return string(out), nil
}

func (c *Client) send(op protocol.Op, ch protocol.Channel, value uint16, flags uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := protocol.EncodeCommand(op, ch, value, flags)
	if err := c.write(frame[:]); err != nil {
		return fmt.Errorf("%s %s: %w", op, ch, err)
	}
	return nil
}

func (c *Client) write(frame []byte) error {
	n, err := c.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

// readFrame reads until a preamble-aligned frame is buffered. A read that
// returns no data counts as an idle line; io.EOF is how a port with a read
// timeout reports that.
func (c *Client) readFrame(deadline time.Time) ([protocol.FrameSize]byte, error) {
	buf := make([]byte, 64)
	for {
		if frame, ok := c.rx.NextFrame(); ok {
			return frame, nil
		}
		if !time.Now().Before(deadline) {
			return [protocol.FrameSize]byte{}, protocol.ErrTimeout
		}

		n, err := c.port.Read(buf)
		if n > 0 {
			c.rx.Write(buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return [protocol.FrameSize]byte{}, err
		}
	}
}
