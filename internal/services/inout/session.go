package inout

import (
	"errors"
	"math"
	"time"

	"InOut/internal/domain/models"
)

// Params are the strategy constants, fixed at construction.
type Params struct {
	Lookback        int
	Window          int // centered mean window
	Shift           int // baseline forward shift
	Trailing        int // regime trailing-minimum window
	StatAlpha       float64
	EMAF            float64
	OutMomentum     int
	DensityCapacity int
	DensitySeed     int
}

// DefaultParams returns the calibrated constants.
func DefaultParams() Params {
	return Params{
		Lookback:        252 * 5,
		Window:          11,
		Shift:           60,
		Trailing:        45,
		StatAlpha:       5,
		EMAF:            2.0 / (1 + 50),
		OutMomentum:     40,
		DensityCapacity: 100,
		DensitySeed:     5,
	}
}

// Decision is the signal and regime outcome of one cycle before trading.
type Decision struct {
	Signal     SignalSnapshot
	Smoothed   float64
	Transition Transition
	Regime     Regime
	Targets    []models.TargetWeight
	OutErr     error
}

// Session owns all mutable strategy state. It is not safe for concurrent use;
// callers serialize access.
type Session struct {
	params   Params
	universe Universe

	history    *PriceHistory
	signals    *SignalComputer
	density    *DensitySeries
	regime     *RegimeMachine
	selector   *OutSelector
	rebalancer RebalanceEngine

	benchBase       map[string]float64
	portfolioValues []float64
}

// NewSession wires the components for universe u.
func NewSession(p Params, u Universe) *Session {
	return &Session{
		params:    p,
		universe:  u,
		history:   NewPriceHistory(p.Lookback, p.Window, p.Shift),
		signals:   NewSignalComputer(u, p.StatAlpha, p.EMAF),
		density:   NewDensitySeries(p.DensityCapacity, p.DensitySeed),
		regime:    NewRegimeMachine(p.Trailing),
		selector:  NewOutSelector(u.Bear, p.OutMomentum),
		benchBase: make(map[string]float64),
	}
}

// Warmup seeds the history with complete rows and records the benchmark
// reference closes (second-to-last row).
func (s *Session) Warmup(bars []models.Bar) {
	s.history.Seed(s.universe.Symbols(), bars)
	s.benchBase = make(map[string]float64)
	for _, sym := range []string{s.universe.Benchmark, s.universe.Symbol(RoleMarket)} {
		if v, ok := s.history.FromEnd(sym, 2); ok && v > 0 {
			s.benchBase[sym] = v
		}
	}
}

// OnBar records a daily close.
func (s *Session) OnBar(b models.Bar) {
	s.history.Append(b.Time, b.Symbol, b.Close)
}

// Decide runs signal, smoothing and regime steps, appending to the density and
// regime series. It leaves state untouched on ErrEmptyHistory.
func (s *Session) Decide() (Decision, error) {
	snap, err := s.signals.Compute(s.history)
	if err != nil {
		return Decision{}, err
	}
	smoothed := s.signals.Smooth(s.density.Last(), snap.Density)
	s.density.Append(smoothed)
	tr := s.regime.Evaluate(s.density)

	d := Decision{Signal: snap, Smoothed: smoothed, Transition: tr, Regime: s.regime.Current()}
	if d.Regime == Out {
		outs, err := s.selector.Select(s.history)
		d.OutErr = err
		d.Targets = mergeTargets(
			[]models.TargetWeight{{Symbol: s.universe.Bull, Weight: 0}},
			outs,
		)
	} else {
		zeros := make([]models.TargetWeight, 0, len(s.universe.Bear))
		for _, b := range s.universe.Bear {
			zeros = append(zeros, models.TargetWeight{Symbol: b, Weight: 0})
		}
		d.Targets = mergeTargets(
			[]models.TargetWeight{{Symbol: s.universe.Bull, Weight: 1}},
			zeros,
		)
	}
	return d, nil
}

// RunDailyCycle decides and plans trades against pf. On an empty history the
// report is marked skipped and ErrEmptyHistory is returned.
func (s *Session) RunDailyCycle(ts time.Time, pf models.Portfolio) (models.CycleReport, []Skipped, error) {
	rep := models.CycleReport{Timestamp: ts, PortfolioValue: pf.TotalValue}
	d, err := s.Decide()
	if err != nil {
		rep.Skipped = true
		rep.Reason = err.Error()
		rep.RegimeFlag = int(s.regime.Current())
		rep.StressDensity = s.density.Last()
		return rep, nil, err
	}

	instr, skipped := s.rebalancer.Plan(d.Targets, pf)
	if instr == nil {
		instr = []models.TradeInstruction{}
	}
	s.portfolioValues = append(s.portfolioValues, pf.TotalValue)

	rep.StressDensity = d.Smoothed
	rep.CurrentDensity = d.Signal.Density
	rep.RegimeFlag = int(d.Regime)
	rep.OutFired = d.Transition.OutFired
	rep.InFired = d.Transition.InFired
	rep.DebtFiltered = d.Signal.DebtFiltered
	rep.Indicators = d.Signal.Indicators
	rep.OutWeights = s.selector.Weights()
	rep.Targets = d.Targets
	rep.Instructions = instr
	rep.Benchmarks = s.benchmarks(pf.TotalValue)
	if d.OutErr != nil && !errors.Is(d.OutErr, ErrNoCandidate) {
		return rep, skipped, d.OutErr
	}
	return rep, skipped, nil
}

func (s *Session) benchmarks(value float64) map[string]float64 {
	if len(s.benchBase) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s.benchBase))
	for sym, base := range s.benchBase {
		if last := s.history.Last(sym); !math.IsNaN(last) {
			out[sym] = last / base * value
		}
	}
	return out
}

// NeedsRestore reports whether the density series carries no information yet,
// in which case a persisted snapshot should replace it.
func (s *Session) NeedsRestore() bool { return s.density.Sum() == 0 }

// RestoreDensity replaces the density series with a persisted snapshot.
func (s *Session) RestoreDensity(vals []float64) { s.density.Restore(vals) }

// DensitySnapshot is the serializable density series.
func (s *Session) DensitySnapshot() []float64 { return s.density.Values() }

// Regime is the effective regime.
func (s *Session) Regime() Regime { return s.regime.Current() }

// RegimeHistory returns every recorded regime flag.
func (s *Session) RegimeHistory() []Regime { return s.regime.History() }

// OutWeights returns the persisted risk-off weights.
func (s *Session) OutWeights() map[string]float64 { return s.selector.Weights() }

// History exposes the price table for reads.
func (s *Session) History() *PriceHistory { return s.history }

// Universe returns the configured instruments.
func (s *Session) Universe() Universe { return s.universe }

// PortfolioValues returns the portfolio value seen at each completed cycle.
func (s *Session) PortfolioValues() []float64 {
	return append([]float64(nil), s.portfolioValues...)
}

// mergeTargets concatenates lists; a repeated symbol keeps its first position
// and takes the later weight.
func mergeTargets(lists ...[]models.TargetWeight) []models.TargetWeight {
	idx := make(map[string]int)
	var out []models.TargetWeight
	for _, l := range lists {
		for _, t := range l {
			if i, ok := idx[t.Symbol]; ok {
				out[i].Weight = t.Weight
				continue
			}
			idx[t.Symbol] = len(out)
			out = append(out, t)
		}
	}
	return out
}
