package repository

import (
	"context"
	"errors"
	"fmt"

	domrepo "InOut/internal/domain/repository"
	"InOut/pkg/cache"
)

const densityKey = "density:series"

// CacheDensityStore persists the density series in a cache.Service: Redis in
// production, MemoryCache when Redis is disabled.
type CacheDensityStore struct {
	c cache.Service
}

func NewCacheDensityStore(c cache.Service) *CacheDensityStore {
	return &CacheDensityStore{c: c}
}

// Load returns the saved series; ok is false when nothing was saved yet.
func (s *CacheDensityStore) Load(ctx context.Context) ([]float64, bool, error) {
	var vals []float64
	if err := s.c.Get(ctx, densityKey, &vals); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load density: %w", err)
	}
	return vals, true, nil
}

func (s *CacheDensityStore) Save(ctx context.Context, values []float64) error {
	if values == nil {
		values = []float64{}
	}
	if err := s.c.Set(ctx, densityKey, values, 0); err != nil {
		return fmt.Errorf("save density: %w", err)
	}
	return nil
}

var _ domrepo.DensityStore = (*CacheDensityStore)(nil)
