package inout

import (
	"errors"
	"testing"

	"InOut/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func investedIn(sym string, qty, price float64) models.Portfolio {
	return models.Portfolio{
		TotalValue: qty * price,
		Holdings:   map[string]models.Holding{sym: {Symbol: sym, Quantity: qty, Price: price}},
		Quotes:     map[string]float64{"QQQ": 100, "TLT": 50},
	}
}

func TestPlanSellsBeforeBuys(t *testing.T) {
	pf := investedIn("QQQ", 1000, 100)
	targets := []models.TargetWeight{{Symbol: "TLT", Weight: 1}, {Symbol: "QQQ", Weight: 0}}

	got, skipped := RebalanceEngine{}.Plan(targets, pf)
	assert.Empty(t, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, "QQQ", got[0].Symbol)
	assert.Equal(t, 0.0, got[0].Weight)
	assert.Equal(t, "TLT", got[1].Symbol)
	assert.Less(t, got[0].Delta, 0.0)
	assert.Greater(t, got[1].Delta, 0.0)
}

func TestPlanIsIdempotentOnceFilled(t *testing.T) {
	targets := []models.TargetWeight{{Symbol: "QQQ", Weight: 0}, {Symbol: "TLT", Weight: 1}}
	filled := investedIn("TLT", 2000, 50)

	first, _ := RebalanceEngine{}.Plan(targets, filled)
	second, _ := RebalanceEngine{}.Plan(targets, filled)
	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestPlanLeavesDriftedPositionAlone(t *testing.T) {
	pf := investedIn("QQQ", 900, 100)
	pf.TotalValue = 100000
	got, _ := RebalanceEngine{}.Plan([]models.TargetWeight{{Symbol: "QQQ", Weight: 1}}, pf)
	assert.Empty(t, got)
}

func TestPlanSkipsMissingQuote(t *testing.T) {
	pf := investedIn("QQQ", 1000, 100)
	delete(pf.Quotes, "TLT")
	targets := []models.TargetWeight{{Symbol: "QQQ", Weight: 0}, {Symbol: "TLT", Weight: 1}}

	got, skipped := RebalanceEngine{}.Plan(targets, pf)
	require.Len(t, got, 1)
	assert.Equal(t, "QQQ", got[0].Symbol)
	require.Len(t, skipped, 1)
	assert.Equal(t, "TLT", skipped[0].Symbol)
	assert.True(t, errors.Is(skipped[0].Err, ErrMissingQuote))
}

func TestHeldWeightEmptyPortfolio(t *testing.T) {
	assert.Zero(t, HeldWeight(models.Holding{Quantity: 10, Price: 5}, 0))
	assert.InDelta(t, 0.5, HeldWeight(models.Holding{Quantity: 10, Price: 5}, 100), 1e-12)
}
