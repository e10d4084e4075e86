package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRingOrder(t *testing.T) {
	ClearEvents()
	t.Cleanup(func() { SetEventClock(func() uint64 { return 0 }) })

	var now uint64
	SetEventClock(func() uint64 { return now })

	for i := uint32(0); i < EventRingSize+6; i++ {
		now = uint64(i) * 10
		RecordEvent(EvtCycle, i, 0)
	}

	events := Events()
	require.Len(t, events, EventRingSize)
	assert.Equal(t, uint32(6), events[0].Value1, "oldest events are overwritten")
	assert.Equal(t, uint32(EventRingSize+5), events[len(events)-1].Value1)
	assert.Equal(t, uint64(60), events[0].Clock)

	ClearEvents()
	assert.Empty(t, Events())
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	lines := captureDebug(t)

	RecordEvent(EvtSet, 1, 500)
	RecordEvent(EvtStart, 3, 0)
	DumpEvents()

	assert.Equal(t, []string{
		"[EVENTS] === Event Ring Dump ===",
		"[EVENTS] SET clock=0 v1=1 v2=500",
		"[EVENTS] START clock=0 v1=3 v2=0",
		"[EVENTS] === End Dump ===",
	}, *lines)
}

func TestDebugDisabled(t *testing.T) {
	lines := captureDebug(t)
	SetDebugEnabled(false)
	t.Cleanup(func() { SetDebugEnabled(true) })

	DebugPrintln("hidden")
	assert.False(t, IsDebugEnabled())
	assert.Empty(t, *lines)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "PULSE_POS", EventName(EvtPulsePositive))
	assert.Equal(t, "HARD_STOP", EventName(EvtHardStop))
	assert.Equal(t, "UNKNOWN", EventName(0))
}
