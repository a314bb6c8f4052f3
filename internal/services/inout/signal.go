package inout

import (
	"math"

	"InOut/internal/domain/models"
	"InOut/internal/services/features"
)

// SignalSnapshot is the stress reading of one daily cycle.
type SignalSnapshot struct {
	Indicators   []models.IndicatorFlag
	Density      float64 // unsmoothed fraction of extreme indicators
	DebtFiltered bool
}

// Extreme reports the flag of the named indicator.
func (s SignalSnapshot) Extreme(name string) bool {
	for _, f := range s.Indicators {
		if f.Name == name {
			return f.Extreme
		}
	}
	return false
}

// SignalComputer turns price deviations from baseline into a stress density.
type SignalComputer struct {
	universe  Universe
	statAlpha float64
	emaF      float64
}

// NewSignalComputer creates a computer flagging days below the statAlpha-th
// percentile and smoothing with factor emaF.
func NewSignalComputer(u Universe, statAlpha, emaF float64) *SignalComputer {
	return &SignalComputer{universe: u, statAlpha: statAlpha, emaF: emaF}
}

// Deviations builds the indicator columns: price/baseline-1 per signal with
// the dollar sign-flipped, followed by the two pair spreads.
func (c *SignalComputer) Deviations(h *PriceHistory) ([]string, map[string][]float64) {
	dev := func(sym string) []float64 {
		if !h.Has(sym) {
			return nanColumn(h.Len())
		}
		return features.RelativeDeviation(h.Column(sym), h.Baseline(sym))
	}

	names := make([]string, 0, len(signalRoles)+2)
	cols := make(map[string][]float64, len(signalRoles)+4)
	for _, r := range signalRoles {
		sym := c.universe.Symbol(r)
		d := dev(sym)
		if r == RoleDollar {
			for i := range d {
				d[i] = -d[i]
			}
		}
		names = append(names, sym)
		cols[sym] = d
	}

	cols[PairGoldSilver] = negSpread(dev(c.universe.Symbol(RoleGold)), dev(c.universe.Symbol(RoleSilver)))
	cols[PairUtilitiesIndustry] = negSpread(dev(c.universe.Symbol(RoleUtilities)), dev(c.universe.Symbol(RoleIndustrials)))
	names = append(names, PairGoldSilver, PairUtilitiesIndustry)
	return names, cols
}

// Compute evaluates the latest row of h. It fails with ErrEmptyHistory when
// there is nothing to evaluate.
func (c *SignalComputer) Compute(h *PriceHistory) (SignalSnapshot, error) {
	if h == nil || h.Empty() {
		return SignalSnapshot{}, ErrEmptyHistory
	}
	names, cols := c.Deviations(h)
	return c.Evaluate(names, cols), nil
}

// Evaluate flags each named column whose last value falls below its own
// statAlpha-th percentile, applies the debt false-positive filter and returns
// the fraction of flagged indicators.
func (c *SignalComputer) Evaluate(names []string, cols map[string][]float64) SignalSnapshot {
	snap := SignalSnapshot{Indicators: make([]models.IndicatorFlag, 0, len(names))}
	for _, name := range names {
		col := cols[name]
		last := features.Last(col)
		thr := features.NaNPercentile(col, c.statAlpha)
		snap.Indicators = append(snap.Indicators, models.IndicatorFlag{
			Name:      name,
			Deviation: last,
			Threshold: thr,
			// NaN on either side compares false
			Extreme: last < thr,
		})
	}

	debt := c.universe.Symbol(RoleDebt)
	for i := range snap.Indicators {
		if snap.Indicators[i].Name != debt || !snap.Indicators[i].Extreme {
			continue
		}
		if c.aboveMedian(cols, RoleMetals) || c.aboveMedian(cols, RoleResources) {
			snap.Indicators[i].Extreme = false
			snap.DebtFiltered = true
		}
	}

	extreme := 0
	for _, f := range snap.Indicators {
		if f.Extreme {
			extreme++
		}
	}
	if len(snap.Indicators) > 0 {
		snap.Density = float64(extreme) / float64(len(snap.Indicators))
	}
	return snap
}

// rising input costs next to falling short yields read as strength, not flight to safety
func (c *SignalComputer) aboveMedian(cols map[string][]float64, r Role) bool {
	col := cols[c.universe.Symbol(r)]
	return features.Last(col) > features.NaNMedian(col)
}

// Smooth folds current into the previous smoothed value.
func (c *SignalComputer) Smooth(prev, current float64) float64 {
	return (1-c.emaF)*prev + c.emaF*current
}

func negSpread(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if i >= len(b) {
			out[i] = math.NaN()
			continue
		}
		out[i] = -(a[i] - b[i])
	}
	return out
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
