package core

import "pulselab/protocol"

// registerCommands installs the four protocol operations
func (f *Firmware) registerCommands() {
	f.registry.Register(protocol.OpSet, "set", f.handleSet)
	f.registry.Register(protocol.OpStart, "start", f.handleStart)
	f.registry.Register(protocol.OpStop, "stop", f.handleStop)
	f.registry.Register(protocol.OpReadback, "readback", f.handleReadback)
}

// handleSet programs a channel period. Never fails; values are clamped.
func (f *Firmware) handleSet(cmd protocol.Command) error {
	f.ApplySet(cmd.Channel, cmd.Value, cmd.Flags)
	DebugPrintln("CMD: SET " + cmd.Channel.String() + " OK (period=" + utoa(uint32(cmd.Value)) + ")")
	return nil
}

// handleStart latches the pulse count and starts a run.
// The channel bit is ignored; START always drives both timers.
func (f *Firmware) handleStart(cmd protocol.Command) error {
	f.disableInterrupts()
	f.seq.SetTarget(uint32(cmd.Value))
	started := f.seq.Start()
	f.restoreInterrupts()
	if !started {
		DebugPrintln("CMD: START ignored (already running)")
		return nil
	}
	DebugPrintln("CMD: START (seq) OK")
	return nil
}

// handleStop requests a soft stop, or performs a hard stop when one is
// latched. A hard stop halts command processing.
func (f *Firmware) handleStop(cmd protocol.Command) error {
	f.disableInterrupts()
	defer f.restoreInterrupts()

	if cmd.Flags&protocol.FlagHardExit != 0 {
		f.seq.LatchHardStop()
	}
	if f.seq.Exit() == ExitHard {
		f.seq.HardStop()
		f.halt()
		DebugPrintln("CMD: STOP (hard) done, command processing halted")
		return ErrHalted
	}
	if f.seq.RequestSoftStop() {
		DebugPrintln("CMD: STOP (soft) requested")
	} else {
		DebugPrintln("CMD: STOP ignored (idle)")
	}
	return nil
}

// handleReadback answers with the channel's stored configuration.
func (f *Firmware) handleReadback(cmd protocol.Command) error {
	if err := f.sendReadback(cmd.Channel); err != nil {
		return err
	}
	DebugPrintln("CMD: READBACK " + cmd.Channel.String() + " OK")
	return nil
}
