package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	"InOut/internal/services/inout"
	"InOut/pkg/logger"
	"InOut/pkg/util"
)

// SimClock is a settable clock shared by the strategy and the paper broker
// during a replay.
type SimClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewSimClock() *SimClock { return &SimClock{} }

func (c *SimClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *SimClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// ReplayResult summarizes a historical run.
type ReplayResult struct {
	Days       int                  `json:"days"`
	Cycles     int                  `json:"cycles"`
	Skipped    int                  `json:"skipped"`
	Trades     int                  `json:"trades"`
	FinalValue float64              `json:"final_value"`
	Reports    []models.CycleReport `json:"reports"`
}

// Replayer drives a strategy over recorded daily closes, one cycle per day.
type Replayer struct {
	strategy  *Strategy
	portfolio domrepo.PortfolioProvider
	clock     *SimClock
	log       *logger.Logger
	cycleAt   time.Duration // offset from midnight UTC
}

func NewReplayer(strategy *Strategy, portfolio domrepo.PortfolioProvider, clock *SimClock, log *logger.Logger) *Replayer {
	if log == nil {
		log = logger.Nop()
	}
	return &Replayer{
		strategy:  strategy,
		portfolio: portfolio,
		clock:     clock,
		log:       log,
		cycleAt:   16 * time.Hour,
	}
}

// Run applies each day's bars and then runs the daily cycle. Days whose cycle
// could not decide are counted as skipped.
func (r *Replayer) Run(ctx context.Context, bars []models.Bar) (ReplayResult, error) {
	days := groupByDay(bars)
	res := ReplayResult{Days: len(days)}

	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.clock.Set(d.day.Add(r.cycleAt))
		for _, b := range d.bars {
			if err := r.strategy.OnBar(ctx, b); err != nil {
				return res, fmt.Errorf("replay %s: %w", d.day.Format("2006-01-02"), err)
			}
		}

		rep, err := r.strategy.RunDailyCycle(ctx)
		switch {
		case err != nil && rep.Timestamp.IsZero():
			return res, err
		case errors.Is(err, inout.ErrEmptyHistory) || rep.Skipped:
			res.Skipped++
			continue
		}
		res.Cycles++
		res.Trades += len(rep.Instructions)
		res.Reports = append(res.Reports, rep)
	}

	pf, err := r.portfolio.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("final snapshot: %w", err)
	}
	res.FinalValue = pf.TotalValue
	r.log.Info("replay complete",
		logger.Int("days", res.Days),
		logger.Int("cycles", res.Cycles),
		logger.Int("trades", res.Trades),
		logger.Float("final_value", res.FinalValue),
	)
	return res, nil
}

type dayBars struct {
	day  time.Time
	bars []models.Bar
}

// groupByDay buckets bars by UTC day, oldest first, stamping each bar with
// its day so intraday timestamps land on one history row.
func groupByDay(bars []models.Bar) []dayBars {
	idx := make(map[time.Time]int)
	var out []dayBars
	for _, b := range bars {
		day := util.Day(b.Time)
		b.Time = day
		i, ok := idx[day]
		if !ok {
			i = len(out)
			idx[day] = i
			out = append(out, dayBars{day: day})
		}
		out[i].bars = append(out[i].bars, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}
