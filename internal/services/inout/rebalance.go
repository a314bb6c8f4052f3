package inout

import (
	"sort"

	"InOut/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Skipped is an instruction dropped for lack of a current quote.
type Skipped struct {
	Symbol string
	Err    error
}

// RebalanceEngine turns target weights into an ordered list of SetHoldings
// instructions. Weight-reducing trades come first so sells free cash before
// buys consume it.
type RebalanceEngine struct{}

// HeldWeight is quantity × price / total value, 0 for an empty portfolio.
func HeldWeight(h models.Holding, total float64) float64 {
	if total == 0 {
		return 0
	}
	v := decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(h.Price))
	return v.Div(decimal.NewFromFloat(total)).InexactFloat64()
}

// Plan orders targets by weight delta and keeps only the ones that change the
// invested state: closing an open position, or opening a flat one. Positions
// already held at a nonzero target are left alone.
func (RebalanceEngine) Plan(targets []models.TargetWeight, pf models.Portfolio) ([]models.TradeInstruction, []Skipped) {
	type leg struct {
		models.TargetWeight
		delta float64
	}
	legs := make([]leg, 0, len(targets))
	for _, t := range targets {
		cur := HeldWeight(pf.Holding(t.Symbol), pf.TotalValue)
		legs = append(legs, leg{TargetWeight: t, delta: t.Weight - cur})
	}
	sort.SliceStable(legs, func(i, j int) bool { return legs[i].delta < legs[j].delta })

	var (
		out     []models.TradeInstruction
		skipped []Skipped
	)
	for _, l := range legs {
		if _, ok := pf.Quote(l.Symbol); !ok {
			skipped = append(skipped, Skipped{Symbol: l.Symbol, Err: ErrMissingQuote})
			continue
		}
		invested := pf.Holding(l.Symbol).Invested()
		closing := l.Weight == 0 && invested
		opening := l.Weight != 0 && !invested
		if closing || opening {
			out = append(out, models.TradeInstruction{Symbol: l.Symbol, Weight: l.Weight, Delta: l.delta})
		}
	}
	return out, skipped
}
