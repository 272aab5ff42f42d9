package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_SetWakesAllWaiters(t *testing.T) {
	r := newTestReactor(t)
	ev := NewEvent(r)
	const n = 3
	woke := 0
	done := make(chan struct{})

	for i := 0; i < n; i++ {
		r.Spawn(func(FiberHandle) {
			require.NoError(t, ev.Wait(Infinite))
			woke++
			if woke == n {
				close(done)
			}
		})
	}
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		assert.False(t, ev.IsSet())
		ev.Set()
		for woke < n {
			require.NoError(t, r.Yield())
		}
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})

	_, err := r.Start()
	require.NoError(t, err)
	assert.Equal(t, n, woke)
	assert.True(t, ev.IsSet())
}

func TestEvent_WaitReturnsImmediatelyIfAlreadySet(t *testing.T) {
	r := newTestReactor(t)
	ev := NewEvent(r)
	ev.Set()
	r.Spawn(func(FiberHandle) {
		require.NoError(t, ev.Wait(Elapsed))
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
}

func TestEvent_ResetRearmsWait(t *testing.T) {
	r := newTestReactor(t)
	ev := NewEvent(r)
	ev.Set()
	ev.Reset()
	assert.False(t, ev.IsSet())

	woke := false
	r.Spawn(func(FiberHandle) {
		require.NoError(t, ev.Wait(Infinite))
		woke = true
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Sleep(time.Millisecond))
		ev.Set()
	})
	_, err := r.Start()
	require.NoError(t, err)
	assert.True(t, woke)
}

func TestSignal_WaitUnblocksOnSignal(t *testing.T) {
	r := newTestReactor(t)
	sig := newSignal(r)
	woke := false
	r.Spawn(func(FiberHandle) {
		require.NoError(t, sig.Wait(Infinite))
		woke = true
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		sig.Signal()
	})
	_, err := r.Start()
	require.NoError(t, err)
	assert.True(t, woke)
}

func TestJoinFiber_ObservesTermination(t *testing.T) {
	r := newTestReactor(t)
	var target FiberHandle
	started := make(chan struct{})
	r.Spawn(func(h FiberHandle) {
		target = h
		close(started)
	})
	r.Spawn(func(FiberHandle) {
		<-started
		require.NoError(t, r.Yield())
		require.NoError(t, r.JoinFiber(target, Infinite))
		assert.Equal(t, FiberNone, r.GetFiberState(target))
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
}
