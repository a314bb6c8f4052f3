package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"InOut/internal/domain/models"
	"InOut/internal/services/inout"
)

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
	trades map[string]int
	bars   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, trades: map[string]int{}}
}

func (m *fakeMetrics) RecordBar(string) {
	m.mu.Lock()
	m.bars++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordMessageSent(string, string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordTrade(symbol, side string) {
	m.mu.Lock()
	m.trades[symbol+":"+side]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordExtreme(string, bool)      {}
func (m *fakeMetrics) RecordDensity(float64)           {}
func (m *fakeMetrics) RecordRegime(int)                {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeBarStore struct {
	history []models.Bar
	stored  []models.Bar
	days    int
}

func (s *fakeBarStore) Init(context.Context) error { return nil }
func (s *fakeBarStore) StoreBar(_ context.Context, b models.Bar) error {
	s.stored = append(s.stored, b)
	return nil
}
func (s *fakeBarStore) StoreBars(_ context.Context, bars []models.Bar) error {
	s.stored = append(s.stored, bars...)
	return nil
}
func (s *fakeBarStore) LoadHistory(_ context.Context, _ []string, days int) ([]models.Bar, error) {
	s.days = days
	return s.history, nil
}
func (s *fakeBarStore) Health(context.Context) error { return nil }
func (s *fakeBarStore) Close() error                 { return nil }

type fakeDensityStore struct {
	values []float64
	saved  [][]float64
}

func (s *fakeDensityStore) Load(context.Context) ([]float64, bool, error) {
	return s.values, s.values != nil, nil
}
func (s *fakeDensityStore) Save(_ context.Context, v []float64) error {
	s.saved = append(s.saved, v)
	return nil
}

type fakeReports struct{ published []models.CycleReport }

func (p *fakeReports) Publish(_ context.Context, r models.CycleReport) error {
	p.published = append(p.published, r)
	return nil
}
func (p *fakeReports) Close() error { return nil }

type failingGateway struct{ err error }

func (g failingGateway) Submit(context.Context, []models.TradeInstruction) error { return g.err }

type staticPortfolio struct{ pf models.Portfolio }

func (p staticPortfolio) Snapshot(context.Context) (models.Portfolio, error) { return p.pf, nil }

func testUniverse() inout.Universe {
	return inout.NewUniverse("QQQ", []string{"TLT"}, "SPY")
}

func testDay(i int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// calmBars produces days of flat closes with a slowly rising bull leg.
func calmBars(u inout.Universe, days int) []models.Bar {
	var out []models.Bar
	for i := 0; i < days; i++ {
		for _, s := range u.Symbols() {
			px := 100.0
			if s == u.Bull {
				px = 100 * math.Exp(1e-5*float64(i*i))
			}
			out = append(out, models.Bar{Symbol: s, Time: testDay(i), Close: px})
		}
	}
	return out
}
