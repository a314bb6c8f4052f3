package inout

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, step, last float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n-1; i++ {
		out[i] = float64(i) * step
	}
	out[n-1] = last
	return out
}

func flatCols(u Universe, n int) ([]string, map[string][]float64) {
	names := append(u.SignalSymbols(), PairGoldSilver, PairUtilitiesIndustry)
	cols := make(map[string][]float64, len(names))
	for _, name := range names {
		cols[name] = make([]float64, n)
	}
	return names, cols
}

func testUniverse() Universe { return NewUniverse("QQQ", []string{"TLT"}, "SPY") }

func TestEvaluateFlagsBelowPercentile(t *testing.T) {
	u := testUniverse()
	c := NewSignalComputer(u, 5, 2.0/51)
	names, cols := flatCols(u, 20)
	cols["XLI"] = ramp(20, 0.01, -0.5)

	snap := c.Evaluate(names, cols)
	require.Len(t, snap.Indicators, 8)
	assert.True(t, snap.Extreme("XLI"))
	assert.False(t, snap.Extreme("QQQ"))
	assert.InDelta(t, 1.0/8, snap.Density, 1e-12)
}

func TestEvaluateClearsDebtFlagWhenMetalsAboveMedian(t *testing.T) {
	u := testUniverse()
	c := NewSignalComputer(u, 5, 2.0/51)
	names, cols := flatCols(u, 20)
	cols["SHY"] = ramp(20, 0.01, -0.5)
	cols["DBB"] = ramp(20, 0.01, 0.5)

	snap := c.Evaluate(names, cols)
	assert.False(t, snap.Extreme("SHY"))
	assert.True(t, snap.DebtFiltered)
	assert.Zero(t, snap.Density)
}

func TestEvaluateKeepsDebtFlagWhenInputsSoft(t *testing.T) {
	u := testUniverse()
	c := NewSignalComputer(u, 5, 2.0/51)
	names, cols := flatCols(u, 20)
	cols["SHY"] = ramp(20, 0.01, -0.5)
	cols["DBB"] = ramp(20, 0.01, 0.05)

	snap := c.Evaluate(names, cols)
	assert.True(t, snap.Extreme("SHY"))
	assert.False(t, snap.Extreme("DBB"))
	assert.False(t, snap.DebtFiltered)
	assert.InDelta(t, 1.0/8, snap.Density, 1e-12)
}

func TestEvaluateAllMissingIsNotExtreme(t *testing.T) {
	u := testUniverse()
	c := NewSignalComputer(u, 5, 2.0/51)
	names, cols := flatCols(u, 4)
	for _, name := range names {
		cols[name] = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	snap := c.Evaluate(names, cols)
	for _, f := range snap.Indicators {
		assert.False(t, f.Extreme, f.Name)
	}
	assert.Zero(t, snap.Density)
}

func TestDeviationsFlipDollarAndBuildPairs(t *testing.T) {
	u := testUniverse()
	c := NewSignalComputer(u, 5, 2.0/51)
	h := NewPriceHistory(1260, 1, 0)
	h.Append(day(0), "UUP", 110)
	h.Append(day(0), "GLD", 100)
	h.Append(day(0), "SLV", 100)
	// window 1 and shift 0 make the baseline equal to the price
	names, cols := c.Deviations(h)
	assert.Len(t, names, 8)
	assert.InDelta(t, 0, cols["UUP"][0], 1e-12)
	assert.InDelta(t, 0, cols[PairGoldSilver][0], 1e-12)
	assert.True(t, math.IsNaN(cols[PairUtilitiesIndustry][0]))
}

func TestComputeOnEmptyHistory(t *testing.T) {
	c := NewSignalComputer(testUniverse(), 5, 2.0/51)
	_, err := c.Compute(NewPriceHistory(10, 3, 0))
	assert.True(t, errors.Is(err, ErrEmptyHistory))
}

func TestSmooth(t *testing.T) {
	c := NewSignalComputer(testUniverse(), 5, 2.0/51)
	got := c.Smooth(0.5, 1)
	assert.InDelta(t, 0.5*49.0/51+2.0/51, got, 1e-12)
}
