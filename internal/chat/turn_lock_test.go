package chat

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTurnLocks_TryAcquire(t *testing.T) {
	locks := NewTurnLocks(zap.NewNop())

	assert.True(t, locks.TryAcquire("chat-ai", "t1"))
	assert.False(t, locks.TryAcquire("chat-ai", "t2"))
	assert.True(t, locks.TryAcquire("chat-1", "t3"), "sessions lock independently")

	holder, ok := locks.Holder("chat-ai")
	assert.True(t, ok)
	assert.Equal(t, "t1", holder)
}

func TestTurnLocks_StaleReleaseIgnored(t *testing.T) {
	locks := NewTurnLocks(zap.NewNop())

	assert.True(t, locks.TryAcquire("chat-ai", "t1"))
	assert.False(t, locks.Release("chat-ai", "t0"))

	_, ok := locks.Holder("chat-ai")
	assert.True(t, ok)

	assert.True(t, locks.Release("chat-ai", "t1"))
	_, ok = locks.Holder("chat-ai")
	assert.False(t, ok)

	assert.True(t, locks.TryAcquire("chat-ai", "t2"))
}

func TestTurnLocks_ConcurrentAcquire(t *testing.T) {
	locks := NewTurnLocks(zap.NewNop())

	var winners int32
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if locks.TryAcquire("chat-ai", string(rune('a'+i))) {
				atomic.AddInt32(&winners, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
