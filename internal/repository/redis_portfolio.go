package repository

import (
	"context"
	"fmt"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	"InOut/pkg/cache"
)

const portfolioKey = "portfolio:snapshot"

// CachePortfolio reads the snapshot an external executor keeps under
// portfolio:snapshot. Prices from incoming bars fill quotes the executor
// did not publish.
type CachePortfolio struct {
	c     cache.Service
	marks map[string]float64
}

func NewCachePortfolio(c cache.Service) *CachePortfolio {
	return &CachePortfolio{c: c, marks: make(map[string]float64)}
}

// MarkPrice records the latest close for symbol. Callers serialize access.
func (p *CachePortfolio) MarkPrice(symbol string, price float64) {
	p.marks[symbol] = price
}

func (p *CachePortfolio) Snapshot(ctx context.Context) (models.Portfolio, error) {
	var pf models.Portfolio
	if err := p.c.Get(ctx, portfolioKey, &pf); err != nil {
		return models.Portfolio{}, fmt.Errorf("portfolio snapshot: %w", err)
	}
	if pf.Quotes == nil {
		pf.Quotes = make(map[string]float64, len(p.marks))
	}
	for sym, px := range p.marks {
		if _, ok := pf.Quotes[sym]; !ok {
			pf.Quotes[sym] = px
		}
	}
	return pf, nil
}

var (
	_ domrepo.PortfolioProvider = (*CachePortfolio)(nil)
	_ domrepo.PriceMarker       = (*CachePortfolio)(nil)
)
