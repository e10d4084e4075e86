package sim

// Timer is a virtual period timer implementing core.PeriodTimer.
type Timer struct {
	clock   *Clock
	tickUS  uint32
	period  uint32 // ticks
	handler func()

	running bool
	base    uint64 // virtual time at which the count was zero
	count   uint32 // frozen count while stopped
	pending bool

	// Scheduling
	wake  uint64
	next  *Timer
	armed bool

	// Statistics
	Starts   int
	Stops    int
	Expiries int
	Clears   int
}

// NewTimer creates a stopped timer with the given tick length.
func (c *Clock) NewTimer(tickUS uint32) *Timer {
	return &Timer{
		clock:  c,
		tickUS: tickUS,
		period: 1,
	}
}

// SetExpiryHandler sets the function called on each expiry.
func (t *Timer) SetExpiryHandler(h func()) {
	t.handler = h
}

// Running reports whether the timer is started.
func (t *Timer) Running() bool {
	return t.running
}

// PeriodTicks returns the programmed period.
func (t *Timer) PeriodTicks() uint32 {
	return t.period
}

// Pending reports whether an expiry latched without being cleared.
func (t *Timer) Pending() bool {
	return t.pending
}

// Start arms the timer from its current count.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.Starts++
	t.running = true
	t.base = t.clock.now - uint64(t.count)*uint64(t.tickUS)
	t.schedule()
}

// Stop disarms the timer and freezes its count.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.Stops++
	t.count = t.elapsedTicks()
	t.running = false
	t.clock.remove(t)
}

// SetPeriodTicks programs the period. A running timer keeps its current
// wake time.
func (t *Timer) SetPeriodTicks(ticks uint32) {
	if ticks == 0 {
		ticks = 1
	}
	t.period = ticks
}

// ResetCount sets the count to zero, restarting the current period.
func (t *Timer) ResetCount() {
	t.count = 0
	t.base = t.clock.now
	if t.running {
		t.clock.remove(t)
		t.schedule()
	}
}

// ClearPending discards a latched expiry.
func (t *Timer) ClearPending() {
	t.Clears++
	t.pending = false
}

func (t *Timer) elapsedTicks() uint32 {
	if !t.running {
		return t.count
	}
	return uint32((t.clock.now - t.base) / uint64(t.tickUS))
}

func (t *Timer) schedule() {
	periodUS := uint64(t.period) * uint64(t.tickUS)
	elapsed := (t.clock.now - t.base) % periodUS
	t.wake = t.clock.now + periodUS - elapsed
	t.clock.insert(t)
}

// expire runs on the clock when the wake time is reached.
func (t *Timer) expire() {
	t.Expiries++
	t.pending = true
	t.base = t.wake
	if t.handler != nil {
		t.handler()
	}
	t.pending = false

	// Auto-reload unless the handler stopped or rescheduled the timer
	if t.running && !t.armed {
		t.schedule()
	}
}
