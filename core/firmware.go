package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pulselab/protocol"
)

// ErrHalted is returned once a hard stop has halted command processing
var ErrHalted = errors.New("command processing halted")

// Transmitter sends response frames to the host.
// Only called from the main loop, never from interrupt context.
type Transmitter interface {
	Transmit(frame []byte) error
}

// Firmware is the cooperative main loop: it takes received frames from the
// mailbox, dispatches them and transmits readback responses.
type Firmware struct {
	seq      *Sequencer
	config   ConfigStore
	mailbox  *protocol.Mailbox
	tx       Transmitter
	registry *CommandRegistry
	irq      sync.Locker

	halted    uint32 // atomic bool
	processed uint32 // atomic
	failed    uint32 // atomic, handler errors and recovered panics
}

// NewFirmware creates the command processor for a sequencer
func NewFirmware(seq *Sequencer, mailbox *protocol.Mailbox, tx Transmitter) *Firmware {
	f := &Firmware{
		seq:      seq,
		mailbox:  mailbox,
		tx:       tx,
		registry: NewCommandRegistry(),
		irq:      nopLocker{},
	}
	f.registerCommands()
	return f
}

// SetInterruptLock installs the lock the platform's timer expiry handlers
// run under. Sequencer and timer updates from the main loop hold it, so
// they never interleave with an expiry handler. Targets whose handlers
// preempt the main loop need no lock.
func (f *Firmware) SetInterruptLock(l sync.Locker) {
	if l == nil {
		l = nopLocker{}
	}
	f.irq = l
}

// Sequencer returns the driven sequencer
func (f *Firmware) Sequencer() *Sequencer {
	return f.seq
}

// Registry returns the command registry
func (f *Firmware) Registry() *CommandRegistry {
	return f.registry
}

// Config returns the last applied configuration of a channel
func (f *Firmware) Config(ch Channel) ChannelConfig {
	return f.config.Load(ch)
}

// Halted reports whether a hard stop halted command processing
func (f *Firmware) Halted() bool {
	return atomic.LoadUint32(&f.halted) != 0
}

// Processed returns the number of frames taken from the mailbox
func (f *Firmware) Processed() uint32 {
	return atomic.LoadUint32(&f.processed)
}

// Failed returns the number of frames whose handling failed
func (f *Firmware) Failed() uint32 {
	return atomic.LoadUint32(&f.failed)
}

// ApplySet clamps a period, programs the channel's timer and records the
// applied value. The timer is stopped and its pending expiry cleared before
// the new period is loaded so no stale expiry fires with a half-applied
// period. A running timer keeps its old period until it is next started.
func (f *Firmware) ApplySet(ch Channel, raw uint16, flags uint8) ChannelConfig {
	value := Clamp(ch, raw)
	ticks := PeriodTicks(ch, value)

	f.disableInterrupts()
	defer f.restoreInterrupts()

	t := f.seq.Timer(ch)
	t.Stop()
	t.ClearPending()
	t.SetPeriodTicks(ticks)
	t.ResetCount()

	cfg := ChannelConfig{Value: value, Flags: flags}
	f.config.Store(ch, cfg)
	RecordEvent(EvtSet, uint32(ch), ticks)
	return cfg
}

// Poll processes at most one pending frame. It returns ErrHalted once
// command processing has been halted, otherwise the handler's error.
func (f *Firmware) Poll() (err error) {
	if f.Halted() {
		return ErrHalted
	}

	frame, ok := f.mailbox.Take()
	if !ok {
		return nil
	}
	atomic.AddUint32(&f.processed, 1)

	// A panicking handler must not take the sequencer down
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint32(&f.failed, 1)
			DebugPrintln("CMD: handler panic, frame dropped")
			err = nil
		}
	}()

	cmd, err := protocol.DecodeCommand(frame[:])
	if err != nil {
		atomic.AddUint32(&f.failed, 1)
		RecordEvent(EvtFrameError, 0, 0)
		DebugPrintln("CMD: dropped frame: " + err.Error())
		return nil
	}

	err = f.registry.Dispatch(cmd)
	switch {
	case err == nil:
	case errors.Is(err, ErrHalted):
	case errors.Is(err, ErrUnknownCommand):
		RecordEvent(EvtUnknownCmd, uint32(cmd.Raw), 0)
		DebugPrintln("Unknown CMD: 0x" + hex2(cmd.Raw))
		err = nil
	default:
		atomic.AddUint32(&f.failed, 1)
		DebugPrintln("CMD: " + cmd.Op.String() + " failed: " + err.Error())
	}
	DebugPrintln("RX: " + protocol.FormatFrame(frame[:]))
	return err
}

// Run polls for commands until ctx is cancelled or command processing is
// halted. The bridge is always left de-energized on return.
func (f *Firmware) Run(ctx context.Context, interval time.Duration) error {
	defer func() {
		f.disableInterrupts()
		defer f.restoreInterrupts()
		if f.seq.Running() {
			f.seq.HardStop()
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := f.Poll(); errors.Is(err, ErrHalted) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Firmware) disableInterrupts() {
	f.irq.Lock()
}

func (f *Firmware) restoreInterrupts() {
	f.irq.Unlock()
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

func (f *Firmware) halt() {
	atomic.StoreUint32(&f.halted, 1)
}

func (f *Firmware) sendReadback(ch Channel) error {
	cfg := f.config.Load(ch)
	frame := protocol.EncodeResponse(ch, cfg.Value, cfg.Flags)
	return f.tx.Transmit(frame[:])
}
