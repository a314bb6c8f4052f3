package usecase

import (
	"context"
	"errors"
	"time"

	"InOut/internal/services/inout"
	"InOut/pkg/logger"
)

// Locker grants a best-effort exclusive lease on a key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CycleRunner runs the daily cycle at most once per trading day across
// replicas sharing the locker.
type CycleRunner struct {
	strategy *Strategy
	lock     Locker
	ttl      time.Duration
	log      *logger.Logger
}

func NewCycleRunner(strategy *Strategy, lock Locker, log *logger.Logger) *CycleRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &CycleRunner{strategy: strategy, lock: lock, ttl: 20 * time.Hour, log: log}
}

// Run is a scheduler job. A day already claimed by another run is skipped.
func (r *CycleRunner) Run(ctx context.Context, at time.Time) error {
	if r.lock != nil {
		key := "cycle:" + at.Format("20060102")
		ok, err := r.lock.TryLock(ctx, key, r.ttl)
		if err != nil {
			return err
		}
		if !ok {
			r.log.Info("cycle already claimed", logger.String("key", key))
			return nil
		}
	}

	_, err := r.strategy.RunDailyCycle(ctx)
	if errors.Is(err, inout.ErrEmptyHistory) {
		return nil
	}
	return err
}
