package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_DisabledSkipsPercentileTracking(t *testing.T) {
	m := newMetrics(false)
	m.observeRunTime(5 * time.Millisecond)
	m.observeRunTime(10 * time.Millisecond)
	assert.Equal(t, int64(2), m.switches)
	assert.Equal(t, 0, m.runTime.Count())
}

func TestMetrics_EnabledTracksPercentiles(t *testing.T) {
	m := newMetrics(true)
	for i := 1; i <= 20; i++ {
		m.observeRunTime(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, 20, m.runTime.Count())
	assert.Greater(t, m.runTime.Quantile(0), float64(0))
}

func TestReactor_MetricsSnapshotReflectsActivity(t *testing.T) {
	r := newTestReactor(t, WithMetrics(true))
	r.Spawn(func(FiberHandle) {
		require.NoError(t, r.Yield())
		require.NoError(t, r.Yield())
		require.ErrorIs(t, r.Stop(0), errReactorExit)
	})
	_, err := r.Start()
	require.NoError(t, err)

	snap := r.Metrics()
	assert.Greater(t, snap.Switches, int64(0))
}
