package core

import (
	"errors"

	"pulselab/protocol"
)

// fakeTimer records every call made through PeriodTimer
type fakeTimer struct {
	calls   []string
	running bool
	period  uint32
	pending bool
	count   uint32
}

func (t *fakeTimer) Start() {
	t.calls = append(t.calls, "start")
	t.running = true
}

func (t *fakeTimer) Stop() {
	t.calls = append(t.calls, "stop")
	t.running = false
}

func (t *fakeTimer) SetPeriodTicks(ticks uint32) {
	t.calls = append(t.calls, "period")
	t.period = ticks
}

func (t *fakeTimer) ResetCount() {
	t.calls = append(t.calls, "reset")
	t.count = 0
}

func (t *fakeTimer) ClearPending() {
	t.calls = append(t.calls, "clear")
	t.pending = false
}

func (t *fakeTimer) resetCalls() { t.calls = nil }

// fakeBridge keeps the four output levels and counts writes
type fakeBridge struct {
	dl, el, dr, er bool
	writes         int
}

func (b *fakeBridge) DriveLeft(on bool)   { b.dl = on; b.writes++ }
func (b *fakeBridge) EnableLeft(on bool)  { b.el = on; b.writes++ }
func (b *fakeBridge) DriveRight(on bool)  { b.dr = on; b.writes++ }
func (b *fakeBridge) EnableRight(on bool) { b.er = on; b.writes++ }

func (b *fakeBridge) state() [4]bool { return [4]bool{b.dl, b.el, b.dr, b.er} }

var (
	bridgePositive = [4]bool{true, true, false, true}
	bridgeNegative = [4]bool{false, true, true, true}
	bridgeOff      = [4]bool{}
)

// fakeTx collects response frames
type fakeTx struct {
	frames [][]byte
	err    error
}

func (t *fakeTx) Transmit(frame []byte) error {
	if t.err != nil {
		return t.err
	}
	t.frames = append(t.frames, append([]byte(nil), frame...))
	return nil
}

type testRig struct {
	fast, slow *fakeTimer
	bridge     *fakeBridge
	seq        *Sequencer
	mailbox    *protocol.Mailbox
	tx         *fakeTx
	fw         *Firmware
}

func newTestRig() *testRig {
	r := &testRig{
		fast:    &fakeTimer{},
		slow:    &fakeTimer{},
		bridge:  &fakeBridge{},
		mailbox: &protocol.Mailbox{},
		tx:      &fakeTx{},
	}
	r.seq = NewSequencer(r.fast, r.slow, r.bridge)
	r.fw = NewFirmware(r.seq, r.mailbox, r.tx)
	return r
}

func (r *testRig) send(op protocol.Op, ch Channel, value uint16, flags uint8) error {
	r.mailbox.Put(protocol.EncodeCommand(op, ch, value, flags))
	return r.fw.Poll()
}

var errFakeGPIO = errors.New("gpio write failed")
