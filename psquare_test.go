package reactor

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPSquareQuantile_MedianApproximatesSortedSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 5000
	samples := make([]float64, n)
	ps := newPSquareQuantile(0.5)
	for i := range samples {
		v := rng.NormFloat64()*10 + 100
		samples[i] = v
		ps.Update(v)
	}
	sort.Float64s(samples)
	want := samples[n/2]
	got := ps.Quantile()
	assert.InDelta(t, want, got, math.Abs(want)*0.05+1, "P² median should track the true median within a small tolerance")
	assert.Equal(t, n, ps.Count())
}

func TestPSquareQuantile_FewerThanFiveSamplesFallsBackToExactSort(t *testing.T) {
	ps := newPSquareQuantile(0.5)
	ps.Update(3)
	ps.Update(1)
	ps.Update(2)
	assert.Equal(t, float64(2), ps.Quantile())
	assert.Equal(t, float64(3), ps.Max())
}

func TestPSquareQuantile_ZeroSamplesReturnsZero(t *testing.T) {
	ps := newPSquareQuantile(0.9)
	assert.Equal(t, float64(0), ps.Quantile())
	assert.Equal(t, float64(0), ps.Max())
	assert.Equal(t, 0, ps.Count())
}

func TestPSquareQuantile_MaxTracksPeak(t *testing.T) {
	ps := newPSquareQuantile(0.99)
	for _, v := range []float64{1, 9, 2, 8, 3, 7, 4, 6, 5} {
		ps.Update(v)
	}
	assert.Equal(t, float64(9), ps.Max())
}

func TestPSquareMultiQuantile_TracksMeanAndMax(t *testing.T) {
	m := newPSquareMultiQuantile(0.5, 0.9, 0.99)
	for i := 1; i <= 10; i++ {
		m.Update(float64(i))
	}
	assert.Equal(t, 10, m.Count())
	assert.InDelta(t, 5.5, m.Mean(), 1e-9)
	assert.Equal(t, float64(10), m.Max())
}

func TestPSquareMultiQuantile_QuantileOutOfRangeReturnsZero(t *testing.T) {
	m := newPSquareMultiQuantile(0.5)
	m.Update(1)
	require.Equal(t, float64(0), m.Quantile(-1))
	require.Equal(t, float64(0), m.Quantile(5))
}
