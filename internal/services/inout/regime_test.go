package inout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seriesOf(vals []float64) *DensitySeries {
	d := NewDensitySeries(100, 0)
	for _, v := range vals {
		d.Append(v)
	}
	return d
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRegimeRisingStressGoesOutWithoutIn(t *testing.T) {
	m := NewRegimeMachine(45)
	vals := append(repeat(0.1, 43), 0.05, 0.2)

	tr := m.Evaluate(seriesOf(vals))
	assert.True(t, tr.OutFired)
	assert.False(t, tr.InFired)
	assert.Equal(t, Out, m.Current())
	assert.Equal(t, []Regime{In, Out}, m.History())
}

func TestRegimeUndercuttingTrailingMinimumGoesIn(t *testing.T) {
	m := NewRegimeMachine(45)
	m.Evaluate(seriesOf(append(repeat(0.1, 43), 0.05, 0.2)))
	assert.Equal(t, Out, m.Current())

	tr := m.Evaluate(seriesOf(append(repeat(0.1, 43), 0.2, 0.05)))
	assert.False(t, tr.OutFired)
	assert.True(t, tr.InFired)
	assert.Equal(t, In, m.Current())
}

func TestRegimeInWinsWhenBothFire(t *testing.T) {
	m := NewRegimeMachine(45)
	// 0.06 rises over 0.05 yet undercuts the trailing minimum of 0.1
	tr := m.Evaluate(seriesOf(append(repeat(0.1, 43), 0.05, 0.06)))
	assert.True(t, tr.OutFired)
	assert.True(t, tr.InFired)
	assert.Equal(t, In, m.Current())
	assert.Equal(t, []Regime{In, Out, In}, m.History())
}

func TestRegimeNoTransitionPersists(t *testing.T) {
	m := NewRegimeMachine(45)
	tr := m.Evaluate(seriesOf(repeat(0, 10)))
	assert.Equal(t, Transition{}, tr)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, In, m.Current())
}

func TestRegimeShortSeriesHasNoInSignal(t *testing.T) {
	m := NewRegimeMachine(45)
	tr := m.Evaluate(seriesOf([]float64{0.3, 0.1}))
	assert.False(t, tr.InFired, "empty trailing window")
	assert.False(t, tr.OutFired)

	tr = m.Evaluate(seriesOf([]float64{0.3}))
	assert.Equal(t, Transition{}, tr)
}

func TestRegimePartialTrailingWindowCanFireIn(t *testing.T) {
	m := NewRegimeMachine(45)
	m.history = []Regime{Out}

	tr := m.Evaluate(seriesOf([]float64{0.3, 0.4, 0.35, 0.2}))
	assert.True(t, tr.InFired, "0.2 undercuts min(0.3, 0.4)")
	assert.False(t, tr.OutFired)
	assert.Equal(t, In, m.Current())
}
