package usecase

import (
	"context"
	"testing"
	"time"

	"InOut/internal/repository"
	"InOut/internal/services/inout"
	"InOut/pkg/cache"
	"InOut/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleRunnerRunsOncePerDay(t *testing.T) {
	u := testUniverse()
	broker := repository.NewPaperBroker(100000)
	reports := &fakeReports{}
	st := NewStrategy(inout.NewSession(inout.DefaultParams(), u), broker, broker, newFakeMetrics(), logger.Nop(), WithReportPublisher(reports))
	ctx := context.Background()
	for _, b := range calmBars(u, 1) {
		require.NoError(t, st.OnBar(ctx, b))
	}

	r := NewCycleRunner(st, cache.NewMemoryCache(), nil)
	at := time.Date(2024, 5, 7, 11, 30, 0, 0, time.UTC)

	require.NoError(t, r.Run(ctx, at))
	require.NoError(t, r.Run(ctx, at.Add(time.Minute)))
	assert.Len(t, reports.published, 1)

	require.NoError(t, r.Run(ctx, at.AddDate(0, 0, 1)))
	assert.Len(t, reports.published, 2)
}

func TestCycleRunnerIgnoresEmptyHistory(t *testing.T) {
	broker := repository.NewPaperBroker(100000)
	st := NewStrategy(inout.NewSession(inout.DefaultParams(), testUniverse()), broker, broker, newFakeMetrics(), logger.Nop())

	assert.NoError(t, NewCycleRunner(st, nil, nil).Run(context.Background(), time.Now()))
}
