package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestWheel returns a wheel whose epoch is pinned to a known instant, so
// relative-deadline arithmetic in these tests is deterministic.
func newTestWheel(t *testing.T) (*timerWheel, time.Time) {
	t.Helper()
	w := newTimerWheel(16, time.Millisecond)
	base := time.Unix(0, 0)
	_, ok := w.pop(base) // establishes w.epoch = base, nothing pending yet
	require.False(t, ok)
	return w, base
}

func drainUpTo(w *timerWheel, now time.Time) {
	for {
		cb, ok := w.pop(now)
		if !ok {
			return
		}
		cb()
	}
}

func TestTimerWheel_OneShotFiresOnce(t *testing.T) {
	w, base := newTestWheel(t)
	fired := 0
	w.registerOneShot(base.Add(5*time.Millisecond), func() { fired++ })

	drainUpTo(w, base.Add(20*time.Millisecond))
	assert.Equal(t, 1, fired)

	// A second pop pass at a later "now" must not re-fire the one-shot.
	drainUpTo(w, base.Add(40*time.Millisecond))
	assert.Equal(t, 1, fired)
}

func TestTimerWheel_RecurringReschedules(t *testing.T) {
	w, base := newTestWheel(t)
	fired := 0
	e := w.newEntry(base.Add(2*time.Millisecond), 2*time.Millisecond, func() { fired++ })
	require.NotNil(t, e)

	drainUpTo(w, base.Add(11*time.Millisecond))
	// Deadlines at 2,4,6,8,10ms should all have fired by 11ms.
	assert.Equal(t, 5, fired)
}

func TestTimerWheel_CancelPreventsFiring(t *testing.T) {
	w, base := newTestWheel(t)
	fired := false
	e := w.registerOneShot(base.Add(5*time.Millisecond), func() { fired = true })
	e.cancel()

	drainUpTo(w, base.Add(20*time.Millisecond))
	assert.False(t, fired)
}

func TestTimerWheel_OrdersDueEntriesByDeadline(t *testing.T) {
	w, base := newTestWheel(t)
	var order []int
	w.registerOneShot(base.Add(9*time.Millisecond), func() { order = append(order, 3) })
	w.registerOneShot(base.Add(3*time.Millisecond), func() { order = append(order, 1) })
	w.registerOneShot(base.Add(6*time.Millisecond), func() { order = append(order, 2) })

	drainUpTo(w, base.Add(20*time.Millisecond))
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestTimerWheel_TimeTillNextEntry(t *testing.T) {
	w, base := newTestWheel(t)
	assert.Equal(t, time.Duration(-1), w.timeTillNextEntry(base))

	w.registerOneShot(base.Add(10*time.Millisecond), func() {})
	d := w.timeTillNextEntry(base)
	assert.Greater(t, d, time.Duration(0))
}

func TestTimerWheel_CascadesAcrossLevels(t *testing.T) {
	w, base := newTestWheel(t)
	// A deadline well beyond level 0's span (256 ticks) must survive being
	// cascaded down from a higher level as the cursor approaches it.
	far := base.Add(time.Duration(timerWheelBins+50) * time.Millisecond)
	fired := false
	w.registerOneShot(far, func() { fired = true })

	drainUpTo(w, far.Add(time.Millisecond))
	assert.True(t, fired)
}
