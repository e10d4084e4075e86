//go:build linux

package main

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselab/core"
)

func TestSoftTimerReloads(t *testing.T) {
	tm := NewSoftTimer(time.Millisecond, nil)
	tm.SetPeriodTicks(5)
	var n int32
	tm.SetExpiryHandler(func() { atomic.AddInt32(&n, 1) })

	tm.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) >= 3 }, time.Second, time.Millisecond)
	tm.Stop()

	got := atomic.LoadInt32(&n)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, got, atomic.LoadInt32(&n), "no expiry after Stop")
	assert.False(t, tm.Running())
}

func TestSoftTimerStopFromHandler(t *testing.T) {
	tm := NewSoftTimer(time.Millisecond, nil)
	tm.SetPeriodTicks(2)
	var n int32
	tm.SetExpiryHandler(func() {
		atomic.AddInt32(&n, 1)
		tm.Stop()
		tm.ClearPending()
	})

	tm.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&n))
	assert.Equal(t, uint64(1), tm.Expiries())
}

func TestSoftTimerResetCount(t *testing.T) {
	tm := NewSoftTimer(time.Millisecond, nil)
	tm.SetPeriodTicks(50)
	fired := make(chan time.Time, 1)
	tm.SetExpiryHandler(func() {
		select {
		case fired <- time.Now():
		default:
		}
	})

	begin := time.Now()
	tm.Start()
	time.Sleep(30 * time.Millisecond)
	tm.ResetCount()

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(begin), 75*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}
	tm.Stop()
}

func TestSoftTimerSequencer(t *testing.T) {
	var irq sync.Mutex
	fast := NewSoftTimer(100*time.Microsecond, &irq)
	slow := NewSoftTimer(100*time.Microsecond, &irq)
	fast.SetPeriodTicks(10) // 1ms
	slow.SetPeriodTicks(100)

	bridge := &countingBridge{}
	seq := core.NewSequencer(fast, slow, bridge)
	require.True(t, seq.Start())

	require.Eventually(t, func() bool { return seq.Cycles() >= 2 }, 2*time.Second, time.Millisecond)
	require.True(t, seq.RequestSoftStop())
	require.Eventually(t, func() bool { return seq.State() == core.StateIdle }, 2*time.Second, time.Millisecond)

	assert.False(t, slow.Running())
	assert.False(t, fast.Running())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&bridge.positive), int32(2))
}

type countingBridge struct {
	positive int32
}

func (b *countingBridge) DriveLeft(on bool) {
	if on {
		atomic.AddInt32(&b.positive, 1)
	}
}
func (b *countingBridge) EnableLeft(bool)  {}
func (b *countingBridge) DriveRight(bool)  {}
func (b *countingBridge) EnableRight(bool) {}
