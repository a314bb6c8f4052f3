package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"

	"github.com/shopspring/decimal"
)

// Fill is one executed paper trade.
type Fill struct {
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Quantity int64     `json:"quantity"` // signed
	Price    float64   `json:"price"`
}

// PaperBroker executes SetHoldings instructions in memory at the last marked
// close. Orders are whole shares, buys are capped by available cash, and there
// are no fees or slippage.
type PaperBroker struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	positions map[string]int64
	prices    map[string]decimal.Decimal
	fills     []Fill
	now       func() time.Time
}

func NewPaperBroker(initialCash float64) *PaperBroker {
	return &PaperBroker{
		cash:      decimal.NewFromFloat(initialCash),
		positions: make(map[string]int64),
		prices:    make(map[string]decimal.Decimal),
		now:       time.Now,
	}
}

// SetClock overrides the fill timestamp source.
func (b *PaperBroker) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}

func (b *PaperBroker) MarkPrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	b.mu.Lock()
	b.prices[symbol] = decimal.NewFromFloat(price)
	b.mu.Unlock()
}

func (b *PaperBroker) Snapshot(_ context.Context) (models.Portfolio, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pf := models.Portfolio{
		TotalValue: b.totalLocked().InexactFloat64(),
		Cash:       b.cash.InexactFloat64(),
		Holdings:   make(map[string]models.Holding, len(b.positions)),
		Quotes:     make(map[string]float64, len(b.prices)),
	}
	for sym, qty := range b.positions {
		px := b.prices[sym]
		pf.Holdings[sym] = models.Holding{Symbol: sym, Quantity: float64(qty), Price: px.InexactFloat64()}
	}
	for sym, px := range b.prices {
		pf.Quotes[sym] = px.InexactFloat64()
	}
	return pf, nil
}

// Submit applies instructions in order. An instruction without a price is
// reported and skipped; the rest still execute.
func (b *PaperBroker) Submit(_ context.Context, instructions []models.TradeInstruction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, in := range instructions {
		if err := b.setHoldingsLocked(in.Symbol, in.Weight); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *PaperBroker) setHoldingsLocked(symbol string, weight float64) error {
	px, ok := b.prices[symbol]
	if !ok || !px.IsPositive() {
		return fmt.Errorf("paper broker: no price for %s", symbol)
	}

	target := b.totalLocked().Mul(decimal.NewFromFloat(weight)).Div(px).Truncate(0).IntPart()
	delta := target - b.positions[symbol]
	if delta > 0 {
		affordable := b.cash.Div(px).Truncate(0).IntPart()
		if delta > affordable {
			delta = affordable
		}
	}
	if delta == 0 {
		return nil
	}

	b.cash = b.cash.Sub(px.Mul(decimal.NewFromInt(delta)))
	b.positions[symbol] += delta
	if b.positions[symbol] == 0 {
		delete(b.positions, symbol)
	}
	b.fills = append(b.fills, Fill{Time: b.now(), Symbol: symbol, Quantity: delta, Price: px.InexactFloat64()})
	return nil
}

func (b *PaperBroker) totalLocked() decimal.Decimal {
	total := b.cash
	for sym, qty := range b.positions {
		total = total.Add(b.prices[sym].Mul(decimal.NewFromInt(qty)))
	}
	return total
}

// Fills returns executed trades, oldest first.
func (b *PaperBroker) Fills() []Fill {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Fill(nil), b.fills...)
}

// Positions returns held symbols in name order.
func (b *PaperBroker) Positions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.positions))
	for sym := range b.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

var (
	_ domrepo.PortfolioProvider = (*PaperBroker)(nil)
	_ domrepo.OrderGateway      = (*PaperBroker)(nil)
	_ domrepo.PriceMarker       = (*PaperBroker)(nil)
)
