package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	"InOut/internal/services/inout"
	"InOut/pkg/logger"
)

// Strategy serializes bar ingestion and the daily cycle over one session and
// routes the results to the executor, the archive and the report stream.
type Strategy struct {
	mu        sync.Mutex
	session   *inout.Session
	portfolio domrepo.PortfolioProvider
	orders    domrepo.OrderGateway
	metrics   domrepo.Metrics
	log       *logger.Logger

	bars    domrepo.BarStore
	density domrepo.DensityStore
	reports domrepo.ReportPublisher
	now     func() time.Time

	lastCycle *models.CycleReport
}

type StrategyOption func(*Strategy)

// WithBarStore archives incoming bars and enables warm-up.
func WithBarStore(s domrepo.BarStore) StrategyOption {
	return func(st *Strategy) { st.bars = s }
}

// WithDensityStore persists the density series after every cycle.
func WithDensityStore(s domrepo.DensityStore) StrategyOption {
	return func(st *Strategy) { st.density = s }
}

// WithReportPublisher emits each cycle report.
func WithReportPublisher(p domrepo.ReportPublisher) StrategyOption {
	return func(st *Strategy) { st.reports = p }
}

// WithClock overrides the cycle timestamp source.
func WithClock(now func() time.Time) StrategyOption {
	return func(st *Strategy) {
		if now != nil {
			st.now = now
		}
	}
}

func NewStrategy(
	session *inout.Session,
	portfolio domrepo.PortfolioProvider,
	orders domrepo.OrderGateway,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts ...StrategyOption,
) *Strategy {
	s := &Strategy{
		session:   session,
		portfolio: portfolio,
		orders:    orders,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warmup seeds the price history from the bar archive and restores the
// density series when the live one carries no information.
func (s *Strategy) Warmup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bars != nil {
		u := s.session.Universe()
		hist, err := s.bars.LoadHistory(ctx, u.Symbols(), s.session.History().Lookback())
		if err != nil {
			s.metrics.RecordError("warmup")
			return fmt.Errorf("load history: %w", err)
		}
		s.session.Warmup(hist)
		s.log.Info("warm-up complete",
			logger.Int("bars", len(hist)),
			logger.Int("rows", s.session.History().Len()),
		)
	}

	return s.restoreDensityLocked(ctx)
}

// restoreDensityLocked reloads the persisted series while the live one sums
// to zero. Another replica may have saved one since start-up.
func (s *Strategy) restoreDensityLocked(ctx context.Context) error {
	if s.density == nil || !s.session.NeedsRestore() {
		return nil
	}
	vals, ok, err := s.density.Load(ctx)
	if err != nil {
		s.metrics.RecordError("density_load")
		return fmt.Errorf("load density: %w", err)
	}
	if ok {
		s.session.RestoreDensity(vals)
		s.log.Info("density restored", logger.Int("values", len(vals)))
	}
	return nil
}

// OnBar applies a daily close and archives it.
func (s *Strategy) OnBar(ctx context.Context, b models.Bar) error {
	if b.Symbol == "" || b.Close <= 0 || b.Time.IsZero() {
		s.metrics.RecordError("bar_invalid")
		return fmt.Errorf("invalid bar %q at %s", b.Symbol, b.Time)
	}

	s.mu.Lock()
	s.session.OnBar(b)
	if m, ok := s.portfolio.(domrepo.PriceMarker); ok {
		m.MarkPrice(b.Symbol, b.Close)
	}
	s.mu.Unlock()

	s.metrics.RecordBar(b.Symbol)
	s.metrics.RecordLastPrice(b.Symbol, b.Close)

	if s.bars != nil {
		if err := s.bars.StoreBar(ctx, b); err != nil {
			s.metrics.RecordError("bar_archive")
			s.log.Warn("archive bar", logger.String("symbol", b.Symbol), logger.Error(err))
		}
	}
	return nil
}

// RunDailyCycle reloads a persisted density series while the live one is
// all zeros, decides, hands instructions to the executor, persists the
// density series and publishes the report. An empty history yields a skipped
// report and inout.ErrEmptyHistory.
func (s *Strategy) RunDailyCycle(ctx context.Context) (models.CycleReport, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.History().Empty() {
		if rerr := s.restoreDensityLocked(ctx); rerr != nil {
			s.log.Warn("restore density", logger.Error(rerr))
		}
	}

	pf, err := s.portfolio.Snapshot(ctx)
	if err != nil {
		s.metrics.RecordError("portfolio_snapshot")
		return models.CycleReport{}, fmt.Errorf("portfolio snapshot: %w", err)
	}

	rep, skipped, err := s.session.RunDailyCycle(s.now(), pf)
	if errors.Is(err, inout.ErrEmptyHistory) {
		s.log.Warn("cycle skipped", logger.String("reason", rep.Reason))
		s.lastCycle = &rep
		return rep, err
	}
	if err != nil {
		s.metrics.RecordError("cycle")
		s.log.Error("cycle", logger.Error(err))
	}
	for _, sk := range skipped {
		s.metrics.RecordError("missing_quote")
		s.log.Warn("instruction skipped", logger.String("symbol", sk.Symbol), logger.Error(sk.Err))
	}

	if len(rep.Instructions) > 0 {
		if serr := s.orders.Submit(ctx, rep.Instructions); serr != nil {
			s.metrics.RecordError("submit")
			rep.ExecutionError = serr.Error()
			s.log.Error("submit instructions", logger.Error(serr))
		} else {
			for _, in := range rep.Instructions {
				side := "buy"
				if in.Delta < 0 {
					side = "sell"
				}
				s.metrics.RecordTrade(in.Symbol, side)
			}
		}
	}

	s.saveDensityLocked(ctx)
	s.record(rep)

	if s.reports != nil {
		if perr := s.reports.Publish(ctx, rep); perr != nil {
			s.metrics.RecordError("report_publish")
			s.log.Warn("publish report", logger.Error(perr))
		}
	}

	s.lastCycle = &rep
	s.metrics.RecordLatency("daily_cycle", time.Since(start).Seconds())
	s.log.Info("cycle complete",
		logger.Float("density", rep.StressDensity),
		logger.Int("regime", rep.RegimeFlag),
		logger.Bool("out_fired", rep.OutFired),
		logger.Bool("in_fired", rep.InFired),
		logger.Int("instructions", len(rep.Instructions)),
	)
	return rep, err
}

func (s *Strategy) record(rep models.CycleReport) {
	s.metrics.RecordDensity(rep.StressDensity)
	s.metrics.RecordRegime(rep.RegimeFlag)
	for _, f := range rep.Indicators {
		s.metrics.RecordExtreme(f.Name, f.Extreme)
	}
}

// SaveDensity persists the current density series.
func (s *Strategy) SaveDensity(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.density == nil {
		return nil
	}
	return s.density.Save(ctx, s.session.DensitySnapshot())
}

func (s *Strategy) saveDensityLocked(ctx context.Context) {
	if s.density == nil {
		return
	}
	if err := s.density.Save(ctx, s.session.DensitySnapshot()); err != nil {
		s.metrics.RecordError("density_save")
		s.log.Warn("save density", logger.Error(err))
	}
}

// State returns a snapshot for reporting.
func (s *Strategy) State() models.StrategyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.session.History()
	density := s.session.DensitySnapshot()
	st := models.StrategyState{
		Regime:        int(s.session.Regime()),
		RegimeHistory: len(s.session.RegimeHistory()),
		DensityLen:    len(density),
		OutWeights:    s.session.OutWeights(),
		HistoryRows:   h.Len(),
		LastCycle:     s.lastCycle,
	}
	if len(density) > 0 {
		st.StressDensity = density[len(density)-1]
	}
	if times := h.Times(); len(times) > 0 {
		first, last := times[0], times[len(times)-1]
		st.FirstDate, st.LastDate = &first, &last
	}
	return st
}

// Density returns the newest n density values, oldest first.
func (s *Strategy) Density(n int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals := s.session.DensitySnapshot()
	if n > 0 && n < len(vals) {
		vals = vals[len(vals)-n:]
	}
	return vals
}

// RegimeHistory returns the newest limit regime flags, oldest first.
func (s *Strategy) RegimeHistory(limit int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.session.RegimeHistory()
	if limit > 0 && limit < len(hist) {
		hist = hist[len(hist)-limit:]
	}
	out := make([]int, len(hist))
	for i, r := range hist {
		out[i] = int(r)
	}
	return out
}

// PortfolioValues returns the value seen at each completed cycle.
func (s *Strategy) PortfolioValues() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.PortfolioValues()
}
