package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchRespectsCapacity(t *testing.T) {
	p := New(PoolFetch, 2)
	var inFlight atomic.Int64
	var maxSeen atomic.Int64
	release := make(chan struct{})

	// Dispatch blocks while both slots are taken, so the five dispatches
	// run in their own goroutine and the tasks are released once the pool
	// is full.
	results := make(chan bool, 5)
	go func() {
		for i := 0; i < 5; i++ {
			results <- p.Dispatch(context.Background(), func(ctx context.Context) {
				n := inFlight.Add(1)
				for {
					cur := maxSeen.Load()
					if n <= cur || maxSeen.CompareAndSwap(cur, n) {
						break
					}
				}
				<-release
				inFlight.Add(-1)
			})
		}
		close(results)
	}()
	require.Eventually(t, func() bool { return inFlight.Load() == 2 }, time.Second, time.Millisecond)
	close(release)
	for ok := range results {
		require.True(t, ok)
	}
	p.Wait()

	assert.LessOrEqual(t, maxSeen.Load(), int64(2))
}

func TestPool_PauseRejectsDispatch(t *testing.T) {
	p := New(PoolFetch, 1)
	p.Pause()

	ran := false
	ok := p.Dispatch(context.Background(), func(ctx context.Context) { ran = true })

	assert.False(t, ok)
	assert.False(t, ran)
	assert.Equal(t, int64(1), p.Health().BudgetRejected)
}

func TestPool_ResumeAllowsDispatch(t *testing.T) {
	p := New(PoolFetch, 1)
	p.Pause()
	p.Resume()

	done := make(chan struct{})
	ok := p.Dispatch(context.Background(), func(ctx context.Context) { close(done) })
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatched task never ran")
	}
	p.Wait()
}

func TestPool_DispatchFailsOnCancelledContext(t *testing.T) {
	p := New(PoolFetch, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := p.Dispatch(ctx, func(ctx context.Context) {})
	assert.False(t, ok)
}

func TestPools_HealthReportsAllFour(t *testing.T) {
	pools := NewPools(1, 2, 3, 4)
	health := pools.Health()

	require.Len(t, health, 4)
	names := map[Name]bool{}
	for _, h := range health {
		names[h.Name] = true
	}
	assert.True(t, names[PoolFetch])
	assert.True(t, names[PoolParse])
	assert.True(t, names[PoolSearch])
	assert.True(t, names[PoolLLM])
}
