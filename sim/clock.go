// Package sim runs the sequencer against virtual hardware: period timers on
// a virtual microsecond clock and a GPIO driver that records every write.
package sim

// Clock is a virtual time base in microseconds. Timers armed on the clock
// expire in wake-time order as the clock is advanced.
type Clock struct {
	now  uint64
	list *Timer // armed timers sorted by wake time
}

// NewClock creates a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current virtual time in microseconds.
func (c *Clock) Now() uint64 {
	return c.now
}

// Advance moves the clock forward by us microseconds, firing every expiry
// that falls inside the interval in order.
func (c *Clock) Advance(us uint64) {
	c.AdvanceTo(c.now + us)
}

// AdvanceTo moves the clock to an absolute time.
func (c *Clock) AdvanceTo(target uint64) {
	for c.list != nil && c.list.wake <= target {
		t := c.list
		c.list = t.next
		t.next = nil
		t.armed = false

		c.now = t.wake
		t.expire()
	}
	if target > c.now {
		c.now = target
	}
}

// insert adds a timer in wake order; timers with equal wake times keep
// their insertion order.
func (c *Clock) insert(t *Timer) {
	if c.list == nil || t.wake < c.list.wake {
		t.next = c.list
		c.list = t
		t.armed = true
		return
	}

	current := c.list
	for current.next != nil && current.next.wake <= t.wake {
		current = current.next
	}

	t.next = current.next
	current.next = t
	t.armed = true
}

// remove unlinks a timer if it is armed.
func (c *Clock) remove(t *Timer) {
	if !t.armed {
		return
	}
	if c.list == t {
		c.list = t.next
	} else {
		for current := c.list; current != nil; current = current.next {
			if current.next == t {
				current.next = t.next
				break
			}
		}
	}
	t.next = nil
	t.armed = false
}
