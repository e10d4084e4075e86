package core

// PeriodTimer is the abstract periodic hardware timer that core code uses.
// Platform-specific implementations program the actual timer and call the
// registered expiry handler from interrupt context each time a period
// elapses while the timer is running.
type PeriodTimer interface {
	// Start arms the timer; expiries fire every period until Stop.
	Start()

	// Stop disarms the timer. No expiry fires after Stop returns.
	Stop()

	// SetPeriodTicks programs the period in hardware ticks.
	// Takes effect the next time the timer is started.
	SetPeriodTicks(ticks uint32)

	// ResetCount sets the counter back to zero.
	ResetCount()

	// ClearPending discards an expiry that has latched but not yet fired.
	ClearPending()
}

// ExpirySource is implemented by timers that deliver expiries to a
// handler. The handler runs in interrupt context and must not block.
type ExpirySource interface {
	SetExpiryHandler(h func())
}
