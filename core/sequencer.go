package core

import "sync/atomic"

// RunState is the sequencer run state
type RunState uint32

const (
	StateIdle RunState = iota
	StateRunning
)

func (s RunState) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// ExitRequest is a pending stop request, consumed at a cycle boundary
// (soft) or by the next STOP command (hard).
type ExitRequest uint32

const (
	ExitNone ExitRequest = iota
	ExitSoft
	ExitHard
)

func (e ExitRequest) String() string {
	switch e {
	case ExitSoft:
		return "soft"
	case ExitHard:
		return "hard"
	}
	return "none"
}

// Intra-cycle phases
const (
	PhasePositive = 0 // Next fast expiry applies the positive pulse
	PhaseNegative = 1 // Next fast expiry applies the negative pulse
	PhaseOff      = 2 // Next fast expiry turns the bridge off and parks the fast timer
)

// Sequencer generates the double pulse. The command path calls Start,
// RequestSoftStop, LatchHardStop and HardStop; the timers call FastExpired
// and SlowExpired from interrupt context. All shared fields are accessed
// atomically and no expiry handler blocks.
type Sequencer struct {
	fast   PeriodTimer
	slow   PeriodTimer
	bridge BridgeDriver

	state  uint32 // atomic RunState
	phase  uint32 // atomic
	exit   uint32 // atomic ExitRequest
	cycles uint32 // atomic, completed cycle boundaries of the current run
	target uint32 // atomic, pulse count latched by START (informational)
	driven uint32 // atomic bool, a pulse pair left the bridge energized
}

// NewSequencer creates an idle sequencer. If a timer implements
// ExpirySource its expiries are routed to the matching engine.
func NewSequencer(fast, slow PeriodTimer, bridge BridgeDriver) *Sequencer {
	s := &Sequencer{
		fast:   fast,
		slow:   slow,
		bridge: bridge,
	}
	if src, ok := fast.(ExpirySource); ok {
		src.SetExpiryHandler(s.FastExpired)
	}
	if src, ok := slow.(ExpirySource); ok {
		src.SetExpiryHandler(s.SlowExpired)
	}
	return s
}

// Timer returns the period timer of a channel
func (s *Sequencer) Timer(ch Channel) PeriodTimer {
	if ch == Slow {
		return s.slow
	}
	return s.fast
}

// State returns the current run state
func (s *Sequencer) State() RunState {
	return RunState(atomic.LoadUint32(&s.state))
}

// Running reports whether a run is active
func (s *Sequencer) Running() bool {
	return s.State() == StateRunning
}

// Phase returns the intra-cycle phase
func (s *Sequencer) Phase() uint32 {
	return atomic.LoadUint32(&s.phase)
}

// Exit returns the pending exit request
func (s *Sequencer) Exit() ExitRequest {
	return ExitRequest(atomic.LoadUint32(&s.exit))
}

// Cycles returns the number of cycles armed by the slow timer in this run
func (s *Sequencer) Cycles() uint32 {
	return atomic.LoadUint32(&s.cycles)
}

// Target returns the pulse count latched by the last START
func (s *Sequencer) Target() uint32 {
	return atomic.LoadUint32(&s.target)
}

// SetTarget latches the pulse count requested by START.
// The count is informational; reaching it does not stop the run.
func (s *Sequencer) SetTarget(count uint32) {
	atomic.StoreUint32(&s.target, count)
}

// Start begins a run. Returns false (and changes nothing) if a run is
// already active.
func (s *Sequencer) Start() bool {
	if !atomic.CompareAndSwapUint32(&s.state, uint32(StateIdle), uint32(StateRunning)) {
		return false
	}
	atomic.StoreUint32(&s.exit, uint32(ExitNone))
	atomic.StoreUint32(&s.phase, PhasePositive)
	atomic.StoreUint32(&s.cycles, 0)

	// State is already Running so the first expiry is not dropped
	s.fast.ResetCount()
	s.slow.ResetCount()
	s.fast.ClearPending()
	s.slow.ClearPending()
	s.fast.Start() // Pulse pair
	s.slow.Start() // Cycle boundary

	RecordEvent(EvtStart, s.Target(), 0)
	return true
}

// RequestSoftStop asks the run to end at the next cycle boundary.
// The pulses already committed in the current cycle complete.
// Returns false if no run is active.
func (s *Sequencer) RequestSoftStop() bool {
	if !s.Running() {
		return false
	}
	// A latched hard exit takes precedence
	atomic.CompareAndSwapUint32(&s.exit, uint32(ExitNone), uint32(ExitSoft))
	return true
}

// LatchHardStop latches a hard exit. The next STOP command performs an
// immediate HardStop instead of a soft stop.
func (s *Sequencer) LatchHardStop() {
	atomic.StoreUint32(&s.exit, uint32(ExitHard))
}

// HardStop stops both timers, turns the bridge off and returns to Idle,
// unconditionally and immediately.
func (s *Sequencer) HardStop() {
	s.fast.Stop()
	s.slow.Stop()
	s.fast.ClearPending()
	s.slow.ClearPending()
	allOff(s.bridge)
	atomic.StoreUint32(&s.driven, 0)

	phase := atomic.SwapUint32(&s.phase, PhasePositive)
	atomic.StoreUint32(&s.state, uint32(StateIdle))
	atomic.StoreUint32(&s.exit, uint32(ExitNone))
	RecordEvent(EvtHardStop, phase, 0)
}

// FastExpired advances the pulse phase. Called from interrupt context on
// each fast timer expiry.
func (s *Sequencer) FastExpired() {
	if !s.Running() {
		return
	}

	switch atomic.LoadUint32(&s.phase) {
	case PhasePositive:
		atomic.StoreUint32(&s.driven, 1)
		positivePulse(s.bridge)
		atomic.StoreUint32(&s.phase, PhaseNegative)
		RecordEvent(EvtPulsePositive, s.Cycles(), 0)
	case PhaseNegative:
		negativePulse(s.bridge)
		atomic.StoreUint32(&s.phase, PhaseOff)
		RecordEvent(EvtPulseNegative, s.Cycles(), 0)
	default:
		// No further fast events until the next cycle resets the phase
		allOff(s.bridge)
		atomic.StoreUint32(&s.driven, 0)
		s.fast.Stop()
		s.fast.ClearPending()
		RecordEvent(EvtPulseOff, s.Cycles(), 0)
	}
}

// SlowExpired marks a cycle boundary. Called from interrupt context on each
// slow timer expiry. It either ends the run (soft stop pending) or arms the
// next pulse pair; the fast timer never re-arms itself.
func (s *Sequencer) SlowExpired() {
	if !s.Running() {
		return
	}

	if s.Exit() == ExitSoft {
		s.slow.Stop()
		s.slow.ClearPending()
		// With Slow at or below two Fast periods the pair may not have
		// finished; the run still ends de-energized.
		s.fast.Stop()
		s.fast.ClearPending()
		if atomic.SwapUint32(&s.driven, 0) != 0 {
			allOff(s.bridge)
		}
		atomic.StoreUint32(&s.phase, PhasePositive)
		atomic.StoreUint32(&s.state, uint32(StateIdle))
		atomic.StoreUint32(&s.exit, uint32(ExitNone))
		RecordEvent(EvtSoftStop, s.Cycles(), 0)
		return
	}

	atomic.StoreUint32(&s.phase, PhasePositive)
	cycle := atomic.AddUint32(&s.cycles, 1)
	s.fast.ResetCount()
	s.fast.ClearPending()
	s.fast.Start()
	RecordEvent(EvtCycle, cycle, 0)
}
