package usecase

import (
	"context"
	"errors"
	"testing"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	"InOut/internal/repository"
	"InOut/internal/services/inout"
	"InOut/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStrategy(pf domrepo.PortfolioProvider, orders domrepo.OrderGateway, m *fakeMetrics, opts ...StrategyOption) *Strategy {
	return NewStrategy(inout.NewSession(inout.DefaultParams(), testUniverse()), pf, orders, m, logger.Nop(), opts...)
}

func TestStrategyWarmupSeedsHistoryAndRestoresDensity(t *testing.T) {
	u := testUniverse()
	store := &fakeBarStore{history: calmBars(u, 300)}
	ds := &fakeDensityStore{values: []float64{0.1, 0.2}}
	st := newTestStrategy(staticPortfolio{}, failingGateway{}, newFakeMetrics(), WithBarStore(store), WithDensityStore(ds))

	require.NoError(t, st.Warmup(context.Background()))

	assert.Equal(t, 1260, store.days)
	state := st.State()
	assert.Equal(t, 300, state.HistoryRows)
	require.NotNil(t, state.FirstDate)
	assert.Equal(t, testDay(0), *state.FirstDate)
	assert.Equal(t, testDay(299), *state.LastDate)
	assert.Equal(t, []float64{0.1, 0.2}, st.Density(0))
	assert.Equal(t, 0.2, state.StressDensity)
}

func TestStrategyWarmupKeepsLiveDensity(t *testing.T) {
	ds := &fakeDensityStore{}
	st := newTestStrategy(staticPortfolio{}, failingGateway{}, newFakeMetrics(), WithDensityStore(ds))

	require.NoError(t, st.Warmup(context.Background()))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, st.Density(0))
}

func TestStrategyCycleRestoresDensitySavedAfterWarmup(t *testing.T) {
	u := testUniverse()
	ds := &fakeDensityStore{}
	broker := repository.NewPaperBroker(100000)
	st := newTestStrategy(broker, broker, newFakeMetrics(), WithDensityStore(ds))

	ctx := context.Background()
	require.NoError(t, st.Warmup(ctx))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, st.Density(0))

	// another replica persisted a series after this one started
	ds.values = []float64{0.3, 0.4}
	for _, b := range calmBars(u, 1) {
		require.NoError(t, st.OnBar(ctx, b))
	}

	_, err := st.RunDailyCycle(ctx)
	require.NoError(t, err)

	got := st.Density(0)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{0.3, 0.4}, got[:2])
	assert.InDelta(t, 0.4*(1-2.0/51), got[2], 1e-12)
}

func TestStrategyRejectsInvalidBar(t *testing.T) {
	m := newFakeMetrics()
	store := &fakeBarStore{}
	st := newTestStrategy(staticPortfolio{}, failingGateway{}, m, WithBarStore(store))

	err := st.OnBar(context.Background(), models.Bar{Symbol: "QQQ", Time: testDay(0), Close: 0})
	assert.Error(t, err)
	assert.Equal(t, 1, m.errorCount("bar_invalid"))
	assert.Empty(t, store.stored)
	assert.Zero(t, st.State().HistoryRows)
}

func TestStrategyEmptyHistorySkipsCycle(t *testing.T) {
	reports := &fakeReports{}
	ds := &fakeDensityStore{}
	st := newTestStrategy(staticPortfolio{}, failingGateway{}, newFakeMetrics(), WithReportPublisher(reports), WithDensityStore(ds))

	rep, err := st.RunDailyCycle(context.Background())
	assert.True(t, errors.Is(err, inout.ErrEmptyHistory))
	assert.True(t, rep.Skipped)
	assert.Empty(t, reports.published)
	assert.Empty(t, ds.saved)
	require.NotNil(t, st.State().LastCycle)
	assert.True(t, st.State().LastCycle.Skipped)
}

func TestStrategyCycleBuysBullWithPaperBroker(t *testing.T) {
	u := testUniverse()
	m := newFakeMetrics()
	store := &fakeBarStore{}
	ds := &fakeDensityStore{}
	reports := &fakeReports{}
	broker := repository.NewPaperBroker(100000)
	st := newTestStrategy(broker, broker, m,
		WithBarStore(store), WithDensityStore(ds), WithReportPublisher(reports),
	)

	ctx := context.Background()
	for _, b := range calmBars(u, 1) {
		require.NoError(t, st.OnBar(ctx, b))
	}

	rep, err := st.RunDailyCycle(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Instructions, 1)
	assert.Equal(t, "QQQ", rep.Instructions[0].Symbol)
	assert.Equal(t, 1.0, rep.Instructions[0].Weight)
	assert.Equal(t, 1, rep.RegimeFlag)
	assert.Empty(t, rep.ExecutionError)

	assert.Equal(t, []string{"QQQ"}, broker.Positions())
	assert.Equal(t, 1, m.trades["QQQ:buy"])
	assert.Len(t, store.stored, len(u.Symbols()))
	assert.Len(t, ds.saved, 1)
	require.Len(t, reports.published, 1)
	assert.Equal(t, 100000.0, reports.published[0].PortfolioValue)
	assert.Equal(t, []float64{100000}, st.PortfolioValues())
	assert.Equal(t, []int{1}, st.RegimeHistory(10))

	// a second identical day holds the position
	rep, err = st.RunDailyCycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, rep.Instructions)
}

func TestStrategySubmitFailureIsReported(t *testing.T) {
	u := testUniverse()
	m := newFakeMetrics()
	reports := &fakeReports{}
	pf := staticPortfolio{pf: models.Portfolio{
		TotalValue: 100000,
		Cash:       100000,
		Quotes:     map[string]float64{"QQQ": 100, "TLT": 100},
	}}
	st := newTestStrategy(pf, failingGateway{err: errors.New("gateway down")}, m, WithReportPublisher(reports))

	ctx := context.Background()
	for _, b := range calmBars(u, 1) {
		require.NoError(t, st.OnBar(ctx, b))
	}

	rep, err := st.RunDailyCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gateway down", rep.ExecutionError)
	assert.Equal(t, 1, m.errorCount("submit"))
	assert.Empty(t, m.trades)
	require.Len(t, reports.published, 1)
	assert.Equal(t, "gateway down", reports.published[0].ExecutionError)
}

func TestStrategyDensityAndRegimeWindows(t *testing.T) {
	st := newTestStrategy(staticPortfolio{}, failingGateway{}, newFakeMetrics())
	assert.Len(t, st.Density(3), 3)
	assert.Len(t, st.Density(0), 5)
	assert.Equal(t, []int{1}, st.RegimeHistory(0))
}
