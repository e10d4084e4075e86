//go:build linux

package main

import (
	"context"
	"errors"
	"io"
	"sync"

	"pulselab/protocol"
)

// Link is the UART transport: a reader feeding the frame receiver and a
// Transmitter for responses. A read returning no data marks the line idle.
type Link struct {
	port io.ReadWriter
	rx   *protocol.Receiver
	mu   sync.Mutex
}

// NewLink creates a link on a port with a read timeout.
func NewLink(port io.ReadWriter, rx *protocol.Receiver) *Link {
	return &Link{port: port, rx: rx}
}

// Transmit implements core.Transmitter.
func (l *Link) Transmit(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

// Run reads until ctx is cancelled or the port fails.
func (l *Link) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := l.port.Read(buf)
		if n > 0 {
			l.rx.Feed(buf[:n])
		} else {
			l.rx.Idle()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
}
