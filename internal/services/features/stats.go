package features

import (
    "math"
    "sort"

    "gonum.org/v1/gonum/floats"
)

// NaNPercentile returns the p-th percentile (0..100) of xs ignoring NaN values,
// interpolating linearly between the closest ranks (numpy's default, Hyndman-Fan
// type 7). It returns NaN when xs holds no finite value. gonum's stat.Quantile
// offers only the empirical and type-4 estimators, so the ranks are done here.
func NaNPercentile(xs []float64, p float64) float64 {
    valid := make([]float64, 0, len(xs))
    for _, x := range xs {
        if !math.IsNaN(x) {
            valid = append(valid, x)
        }
    }
    if len(valid) == 0 {
        return math.NaN()
    }
    sort.Float64s(valid)
    if len(valid) == 1 {
        return valid[0]
    }
    if p <= 0 {
        return valid[0]
    }
    if p >= 100 {
        return valid[len(valid)-1]
    }
    rank := p / 100 * float64(len(valid)-1)
    lo := int(math.Floor(rank))
    hi := int(math.Ceil(rank))
    if lo == hi {
        return valid[lo]
    }
    frac := rank - float64(lo)
    return valid[lo] + (valid[hi]-valid[lo])*frac
}

// NaNMedian is the 50th NaN-ignoring percentile.
func NaNMedian(xs []float64) float64 { return NaNPercentile(xs, 50) }

// CenteredRollingMean computes a centered moving average over window points.
// A point is NaN unless the full window exists and holds no NaN.
// The output for index i covers xs[i+off-window+1 .. i+off] with off=(window-1)/2.
// One pass keeps a running sum of the finite values and a count of the NaNs in
// the window; the sum is re-seeded from the slice whenever the window turns
// NaN-free again, which bounds drift from the running subtraction.
func CenteredRollingMean(xs []float64, window int) []float64 {
    out := make([]float64, len(xs))
    for i := range out {
        out[i] = math.NaN()
    }
    if window <= 0 || window > len(xs) {
        return out
    }
    off := (window - 1) / 2
    sum, nans := 0.0, 0
    dirty := true
    for end, x := range xs {
        if math.IsNaN(x) {
            nans++
        } else {
            sum += x
        }
        if start := end - window; start >= 0 {
            if math.IsNaN(xs[start]) {
                nans--
            } else {
                sum -= xs[start]
            }
        }
        if end < window-1 {
            continue
        }
        if nans > 0 {
            dirty = true
            continue
        }
        if dirty {
            sum = floats.Sum(xs[end-window+1 : end+1])
            dirty = false
        }
        out[end-off] = sum / float64(window)
    }
    return out
}

// ShiftForward moves values n positions later, filling the head with NaN.
func ShiftForward(xs []float64, n int) []float64 {
    out := make([]float64, len(xs))
    for i := range out {
        j := i - n
        if j < 0 || j >= len(xs) {
            out[i] = math.NaN()
            continue
        }
        out[i] = xs[j]
    }
    return out
}

// RelativeDeviation returns price/base - 1 element-wise; NaN where either side
// is missing or the base is zero.
func RelativeDeviation(price, base []float64) []float64 {
    n := len(price)
    if len(base) < n {
        n = len(base)
    }
    out := make([]float64, n)
    for i := 0; i < n; i++ {
        p, b := price[i], base[i]
        if math.IsNaN(p) || math.IsNaN(b) || b == 0 {
            out[i] = math.NaN()
            continue
        }
        out[i] = p/b - 1
    }
    return out
}

// Last returns the final element of xs, or NaN when xs is empty.
func Last(xs []float64) float64 {
    if len(xs) == 0 {
        return math.NaN()
    }
    return xs[len(xs)-1]
}
