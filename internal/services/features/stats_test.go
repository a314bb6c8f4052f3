package features

import (
    "math"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gonum.org/v1/gonum/floats"
    "gonum.org/v1/gonum/stat"
)

func TestNaNPercentileInterpolates(t *testing.T) {
    xs := []float64{5, 1, math.NaN(), 3, 2, 4}
    assert.InDelta(t, 1.2, NaNPercentile(xs, 5), 1e-12)
    assert.InDelta(t, 3.0, NaNMedian(xs), 1e-12)
    assert.Equal(t, 1.0, NaNPercentile(xs, 0))
    assert.Equal(t, 5.0, NaNPercentile(xs, 100))
}

func TestNaNPercentileAllMissing(t *testing.T) {
    assert.True(t, math.IsNaN(NaNPercentile([]float64{math.NaN(), math.NaN()}, 5)))
    assert.True(t, math.IsNaN(NaNPercentile(nil, 5)))
    assert.Equal(t, 7.0, NaNPercentile([]float64{math.NaN(), 7}, 5))
}

func TestCenteredRollingMean(t *testing.T) {
    xs := []float64{1, 2, 3, 4, 5, 6, 7}
    got := CenteredRollingMean(xs, 3)
    require.Len(t, got, len(xs))
    assert.True(t, math.IsNaN(got[0]))
    assert.InDelta(t, 2.0, got[1], 1e-12)
    assert.InDelta(t, 6.0, got[5], 1e-12)
    assert.True(t, math.IsNaN(got[6]))

    xs[3] = math.NaN()
    got = CenteredRollingMean(xs, 3)
    assert.True(t, math.IsNaN(got[2]))
    assert.True(t, math.IsNaN(got[3]))
    assert.True(t, math.IsNaN(got[4]))
    assert.InDelta(t, 2.0, got[1], 1e-12)
}

func TestCenteredRollingMeanMatchesWindowMean(t *testing.T) {
    xs := make([]float64, 400)
    for i := range xs {
        xs[i] = 100 + 10*math.Sin(float64(i)/7) + 0.01*float64(i)
    }
    for _, gap := range []int{37, 38, 200, 311} {
        xs[gap] = math.NaN()
    }

    const window = 11
    off := (window - 1) / 2
    got := CenteredRollingMean(xs, window)
    require.Len(t, got, len(xs))
    for i := range xs {
        start, end := i+off-window+1, i+off
        if start < 0 || end >= len(xs) || floats.HasNaN(xs[start:end+1]) {
            assert.True(t, math.IsNaN(got[i]), "index %d", i)
            continue
        }
        assert.InDelta(t, stat.Mean(xs[start:end+1], nil), got[i], 1e-9, "index %d", i)
    }
}

func TestCenteredRollingMeanShortInput(t *testing.T) {
    got := CenteredRollingMean([]float64{1, 2}, 3)
    assert.True(t, math.IsNaN(got[0]))
    assert.True(t, math.IsNaN(got[1]))
}

func TestShiftForward(t *testing.T) {
    got := ShiftForward([]float64{1, 2, 3, 4}, 2)
    assert.True(t, math.IsNaN(got[0]))
    assert.True(t, math.IsNaN(got[1]))
    assert.Equal(t, []float64{1, 2}, got[2:])
}

func TestRelativeDeviation(t *testing.T) {
    got := RelativeDeviation([]float64{110, 90, 100}, []float64{100, math.NaN(), 0})
    assert.InDelta(t, 0.1, got[0], 1e-12)
    assert.True(t, math.IsNaN(got[1]))
    assert.True(t, math.IsNaN(got[2]))
}
