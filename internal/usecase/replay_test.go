package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"InOut/internal/domain/models"
	"InOut/internal/repository"
	"InOut/internal/services/inout"
	"InOut/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCalmMarketBuysOnceAndHolds(t *testing.T) {
	u := testUniverse()
	clock := NewSimClock()
	broker := repository.NewPaperBroker(100000)
	broker.SetClock(clock.Now)
	st := NewStrategy(inout.NewSession(inout.DefaultParams(), u), broker, broker, newFakeMetrics(), logger.Nop(), WithClock(clock.Now))

	res, err := NewReplayer(st, broker, clock, nil).Run(context.Background(), calmBars(u, 30))
	require.NoError(t, err)

	assert.Equal(t, 30, res.Days)
	assert.Equal(t, 30, res.Cycles)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, 1, res.Trades)
	assert.InDelta(t, 1000*100*math.Exp(1e-5*29*29), res.FinalValue, 1e-6)

	require.Len(t, res.Reports, 30)
	assert.Equal(t, testDay(0).Add(16*time.Hour), res.Reports[0].Timestamp)

	fills := broker.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, int64(1000), fills[0].Quantity)
	assert.Equal(t, testDay(0).Add(16*time.Hour), fills[0].Time)
}

func TestReplayEmptyInput(t *testing.T) {
	broker := repository.NewPaperBroker(5000)
	st := NewStrategy(inout.NewSession(inout.DefaultParams(), testUniverse()), broker, broker, newFakeMetrics(), logger.Nop())

	res, err := NewReplayer(st, broker, NewSimClock(), nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Days)
	assert.Equal(t, 5000.0, res.FinalValue)
}

func TestReplayCollapsesIntradayTimestamps(t *testing.T) {
	u := testUniverse()
	bars := calmBars(u, 5)
	for i := range bars {
		bars[i].Time = bars[i].Time.Add(time.Duration(i%7+9) * time.Hour)
	}
	clock := NewSimClock()
	broker := repository.NewPaperBroker(100000)
	st := NewStrategy(inout.NewSession(inout.DefaultParams(), u), broker, broker, newFakeMetrics(), logger.Nop(), WithClock(clock.Now))

	res, err := NewReplayer(st, broker, clock, nil).Run(context.Background(), bars)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Days)

	state := st.State()
	assert.Equal(t, 5, state.HistoryRows)
	require.NotNil(t, state.LastDate)
	assert.Equal(t, testDay(4), *state.LastDate)
}

func TestGroupByDayOrdersDays(t *testing.T) {
	bars := []models.Bar{
		{Symbol: "QQQ", Time: testDay(2), Close: 3},
		{Symbol: "QQQ", Time: testDay(0).Add(15 * time.Hour), Close: 1},
		{Symbol: "TLT", Time: testDay(2), Close: 4},
		{Symbol: "TLT", Time: testDay(0), Close: 2},
	}
	days := groupByDay(bars)
	require.Len(t, days, 2)
	assert.Equal(t, testDay(0), days[0].day)
	require.Len(t, days[0].bars, 2)
	assert.Equal(t, testDay(0), days[0].bars[0].Time)
	assert.Equal(t, testDay(2), days[1].day)
	assert.Equal(t, "QQQ", days[1].bars[0].Symbol)
}
