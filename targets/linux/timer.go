//go:build linux

package main

import (
	"sync"
	"time"
)

// SoftTimer is a period timer driven by the Go runtime clock. Expiry
// handlers of all timers sharing an irq lock run one at a time, the way
// interrupt handlers of equal priority do.
type SoftTimer struct {
	mu      sync.Mutex
	irq     *sync.Mutex
	tick    time.Duration
	period  uint32
	handler func()

	running bool
	gen     uint64        // bumped on every Stop/Start/ResetCount
	base    time.Time     // start of the current period
	elapsed time.Duration // progress frozen by Stop
	pending bool

	expiries uint64
}

// NewSoftTimer creates a stopped timer with the given tick length.
func NewSoftTimer(tick time.Duration, irq *sync.Mutex) *SoftTimer {
	if irq == nil {
		irq = &sync.Mutex{}
	}
	return &SoftTimer{
		irq:    irq,
		tick:   tick,
		period: 1,
	}
}

// SetExpiryHandler sets the function called on each expiry.
func (t *SoftTimer) SetExpiryHandler(h func()) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Start runs the timer from its current count.
func (t *SoftTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.base = time.Now().Add(-t.elapsed)
	t.launch()
}

// Stop halts the timer and freezes its count. Called with the irq lock
// held, no expiry handler runs after Stop returns.
func (t *SoftTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	t.elapsed = time.Since(t.base) % t.periodDuration()
}

// SetPeriodTicks programs the period. A running timer keeps its current
// deadline; the new period applies from the next reload.
func (t *SoftTimer) SetPeriodTicks(ticks uint32) {
	if ticks == 0 {
		ticks = 1
	}
	t.mu.Lock()
	t.period = ticks
	t.mu.Unlock()
}

// ResetCount restarts the current period.
func (t *SoftTimer) ResetCount() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = 0
	if t.running {
		t.base = time.Now()
		t.launch()
	}
}

// ClearPending discards a latched expiry.
func (t *SoftTimer) ClearPending() {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
}

// Running reports whether the timer is started.
func (t *SoftTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Expiries returns the number of expiries delivered.
func (t *SoftTimer) Expiries() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiries
}

func (t *SoftTimer) periodDuration() time.Duration {
	return time.Duration(t.period) * t.tick
}

// launch starts a new expiry goroutine. Caller holds t.mu.
func (t *SoftTimer) launch() {
	t.gen++
	go t.loop(t.gen, t.base.Add(t.periodDuration()))
}

func (t *SoftTimer) loop(gen uint64, deadline time.Time) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		<-timer.C

		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.base = deadline
		t.pending = true
		t.expiries++
		h := t.handler
		t.mu.Unlock()

		if h != nil {
			t.irq.Lock()
			// A Stop that won the irq lock cancels this expiry
			t.mu.Lock()
			current := t.gen == gen
			t.mu.Unlock()
			if current {
				h()
			}
			t.irq.Unlock()
		}

		t.mu.Lock()
		t.pending = false
		if t.gen != gen {
			// The handler stopped or restarted this timer
			t.mu.Unlock()
			return
		}
		deadline = deadline.Add(t.periodDuration())
		t.mu.Unlock()

		timer.Reset(time.Until(deadline))
	}
}
