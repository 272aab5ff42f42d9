package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberGroup_SpawnFiberTracksMembership(t *testing.T) {
	r := newTestReactor(t)
	g := NewFiberGroup(r, "workers")
	ran := false
	g.SpawnFiber(func(FiberHandle) {
		ran = true
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		assert.True(t, ran)
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)
}

func TestFiberGroup_CloseInjectsExtinctionIntoMembers(t *testing.T) {
	r := newTestReactor(t)
	g := NewFiberGroup(r, "doomed")
	var observed error

	g.SpawnFiber(func(FiberHandle) {
		observed = r.Sleep(time.Hour)
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		require.NoError(t, g.Close(true))
		assert.Equal(t, GroupClosed, g.State())
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})

	_, err := r.Start()
	require.NoError(t, err)
	require.Error(t, observed)
	var ge *FiberGroupExtinctionError
	require.True(t, errors.As(observed, &ge))
	assert.Equal(t, "doomed", ge.Group)
}

func TestFiberGroup_RunTrackedReportsIncompleteOnClose(t *testing.T) {
	r := newTestReactor(t)
	g := NewFiberGroup(r, "tracked")
	var completed bool
	var runErr error

	r.Spawn(func(FiberHandle) {
		completed, runErr = g.RunTracked(func() error {
			return r.Sleep(time.Hour)
		})
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		require.NoError(t, g.Close(false))
	})

	_, err := r.Start()
	require.NoError(t, err)
	assert.False(t, completed)
	assert.NoError(t, runErr)
}

