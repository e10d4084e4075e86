package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxLatestWins(t *testing.T) {
	var mb Mailbox

	_, ok := mb.Take()
	assert.False(t, ok)
	assert.False(t, mb.Pending())

	first := EncodeCommand(OpSet, Fast, 100, 0)
	second := EncodeCommand(OpSet, Fast, 200, 0)

	assert.False(t, mb.Put(first))
	assert.True(t, mb.Pending())
	assert.True(t, mb.Put(second), "second put should overwrite")
	assert.Equal(t, uint32(1), mb.Overwritten())

	got, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, second, got)

	_, ok = mb.Take()
	assert.False(t, ok, "slot holds at most one frame")
}

func TestMailboxConcurrentHandoff(t *testing.T) {
	var mb Mailbox
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			mb.Put(EncodeCommand(OpSet, Fast, uint16(i), 0))
		}
	}()

	var taken int
	var last uint16
	for {
		frame, ok := mb.Take()
		if ok {
			cmd, err := DecodeCommand(frame[:])
			require.NoError(t, err)
			if taken > 0 {
				assert.Greater(t, cmd.Value, last, "frames must never go backwards")
			}
			last = cmd.Value
			taken++
			if cmd.Value == n-1 {
				break
			}
		}
	}
	wg.Wait()

	assert.Equal(t, uint32(n), uint32(taken)+mb.Overwritten())
}
