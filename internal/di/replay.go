package di

import (
	internalrepo "InOut/internal/repository"
	"InOut/internal/usecase"
	"InOut/pkg/config"
	"InOut/pkg/logger"
	"InOut/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// InitializeReplay builds an offline strategy on a paper broker driven by a
// simulated clock. Metrics go to a private registry.
func InitializeReplay(cfg *config.Config, l *logger.Logger) (*usecase.Replayer, *internalrepo.PaperBroker) {
	clock := usecase.NewSimClock()
	broker := internalrepo.NewPaperBroker(cfg.Execution.InitialCash)
	broker.SetClock(clock.Now)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	strategy := usecase.NewStrategy(ProvideSession(cfg), broker, broker, m, l, usecase.WithClock(clock.Now))
	return usecase.NewReplayer(strategy, broker, clock, l), broker
}
