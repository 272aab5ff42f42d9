package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReactor(t *testing.T, opts ...Option) *Reactor {
	t.Helper()
	base := []Option{WithNumFibers(8), withGCDisabledForTesting()}
	r, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func TestReactor_SpawnRunsAndExits(t *testing.T) {
	r := newTestReactor(t)
	var ran bool
	r.Spawn(func(FiberHandle) {
		ran = true
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	code, err := r.Start()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.True(t, ran)
}

func TestReactor_FairRoundRobinScheduling(t *testing.T) {
	r := newTestReactor(t)
	const n = 4
	var order []int
	done := make(chan struct{})
	remaining := n

	for i := 0; i < n; i++ {
		i := i
		r.Spawn(func(FiberHandle) {
			for iter := 0; iter < 3; iter++ {
				order = append(order, i)
				require.NoError(t, r.Yield())
			}
			remaining--
			if remaining == 0 {
				close(done)
			}
		})
	}
	r.Spawn(func(FiberHandle) {
		for remaining > 0 {
			require.NoError(t, r.Yield())
		}
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})

	_, err := r.Start()
	require.NoError(t, err)

	// Every fiber must appear exactly 3 times, and the first full round
	// must visit all of them before any repeats (FIFO ready queue).
	counts := make(map[int]int)
	for _, v := range order {
		counts[v]++
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, 3, counts[i])
	}
	first := order[:n]
	seen := make(map[int]bool)
	for _, v := range first {
		seen[v] = true
	}
	assert.Len(t, seen, n, "first round should visit every fiber once")
}

func TestReactor_SleepOrdersByDeadline(t *testing.T) {
	r := newTestReactor(t)
	var order []string
	r.Spawn(func(FiberHandle) {
		// Stop is called before this deadline, so shutdown unwinds the
		// sleep with the reactor-exit error.
		if err := r.Sleep(30*time.Millisecond); err != nil {
			require.ErrorIs(t, err, errReactorExit)
			return
		}
		order = append(order, "slow")
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Sleep(5*time.Millisecond))
		order = append(order, "fast")
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(order), 1)
	assert.Equal(t, "fast", order[0])
}

func TestReactor_ShouldYieldRespectsTolerance(t *testing.T) {
	r := newTestReactor(t, WithMaxDesiredRunTime(time.Nanosecond))
	r.Spawn(func(FiberHandle) {
		time.Sleep(time.Millisecond)
		assert.True(t, r.ShouldYield(0))
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
}

func TestReactor_ThrowInFiberCancelsSleep(t *testing.T) {
	r := newTestReactor(t)
	var woke error
	var target FiberHandle
	started := make(chan struct{})
	r.Spawn(func(h FiberHandle) {
		target = h
		close(started)
		woke = r.Sleep(time.Hour)
	})
	r.Spawn(func(FiberHandle) {
		<-started
		require.True(t, r.ThrowInFiber(target, assertCanceled))
		require.NoError(t, r.JoinFiber(target, Infinite))
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
	require.Error(t, woke)
}

var assertCanceled = errors.New("test cancellation")
