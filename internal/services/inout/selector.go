package inout

import (
	"math"
	"sort"

	"InOut/internal/domain/models"
)

// OutSelector picks at most one risk-off instrument by trailing momentum.
// The last decision is kept until the next Select.
type OutSelector struct {
	candidates []string
	lookback   int
	weights    map[string]float64
}

// NewOutSelector ranks candidates by the return over lookback rows. Every
// candidate starts at weight 1, the configured default holding.
func NewOutSelector(candidates []string, lookback int) *OutSelector {
	w := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		w[c] = 1
	}
	return &OutSelector{candidates: append([]string(nil), candidates...), lookback: lookback, weights: w}
}

type momentum struct {
	symbol string
	ret    float64
}

// Select recomputes the risk-off weights from h. It returns ErrNoCandidate when
// nothing could be held, in which case every weight is 0.
func (s *OutSelector) Select(h *PriceHistory) ([]models.TargetWeight, error) {
	ranked := make([]momentum, 0, len(s.candidates))
	for _, c := range s.candidates {
		if h == nil || !h.Has(c) {
			continue
		}
		ranked = append(ranked, momentum{symbol: c, ret: s.trailingReturn(h, c)})
	}
	// NaN returns sink to the bottom
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].ret, ranked[j].ret
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})

	top := ""
	if len(ranked) > 0 && ranked[0].ret > 0 {
		top = ranked[0].symbol
	}
	for _, c := range s.candidates {
		if c == top {
			s.weights[c] = 1
		} else {
			s.weights[c] = 0
		}
	}

	out := s.Targets()
	if top == "" {
		return out, ErrNoCandidate
	}
	return out, nil
}

func (s *OutSelector) trailingReturn(h *PriceHistory, sym string) float64 {
	last, ok := h.FromEnd(sym, 1)
	if !ok {
		return math.NaN()
	}
	past, ok := h.FromEnd(sym, s.lookback)
	if !ok || past == 0 {
		return math.NaN()
	}
	return last/past - 1
}

// Targets returns the current weights in candidate order.
func (s *OutSelector) Targets() []models.TargetWeight {
	out := make([]models.TargetWeight, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, models.TargetWeight{Symbol: c, Weight: s.weights[c]})
	}
	return out
}

// Weights returns a copy of the current weights.
func (s *OutSelector) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out
}
