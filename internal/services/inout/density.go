package inout

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DensitySeries is a FIFO-bounded sequence of smoothed stress density values.
type DensitySeries struct {
	capacity int
	values   []float64
}

// NewDensitySeries creates a series holding at most capacity values, seeded
// with seed zeros.
func NewDensitySeries(capacity, seed int) *DensitySeries {
	if seed > capacity {
		seed = capacity
	}
	return &DensitySeries{capacity: capacity, values: make([]float64, seed, capacity+1)}
}

// Append adds v, evicting the oldest value once capacity is exceeded.
func (d *DensitySeries) Append(v float64) {
	d.values = append(d.values, v)
	if len(d.values) > d.capacity {
		d.values = append(d.values[:0], d.values[len(d.values)-d.capacity:]...)
	}
}

// Restore replaces the series with the latest capacity entries of vals.
// Values are clamped to [0,1]; NaN entries become 0.
func (d *DensitySeries) Restore(vals []float64) {
	if len(vals) > d.capacity {
		vals = vals[len(vals)-d.capacity:]
	}
	d.values = d.values[:0]
	for _, v := range vals {
		d.values = append(d.values, clamp01(v))
	}
}

// Len is the number of stored values.
func (d *DensitySeries) Len() int { return len(d.values) }

// Capacity is the eviction bound.
func (d *DensitySeries) Capacity() int { return d.capacity }

// Last returns the newest value, 0 for an empty series.
func (d *DensitySeries) Last() float64 { return d.at(1) }

// Prev returns the value before the newest, 0 when absent.
func (d *DensitySeries) Prev() float64 { return d.at(2) }

func (d *DensitySeries) at(k int) float64 {
	if len(d.values) < k {
		return 0
	}
	return d.values[len(d.values)-k]
}

// Sum adds every stored value.
func (d *DensitySeries) Sum() float64 { return floats.Sum(d.values) }

// Values returns a copy, oldest first.
func (d *DensitySeries) Values() []float64 { return append([]float64(nil), d.values...) }

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
