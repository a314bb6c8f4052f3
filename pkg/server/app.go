package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "InOut/internal/middleware"
	"InOut/internal/usecase"
	"InOut/pkg/config"
	xhttp "InOut/pkg/http"
	pkgkafka "InOut/pkg/kafka"
	applogger "InOut/pkg/logger"
	"InOut/pkg/scheduler"
)

// Closer releases an infrastructure client at shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Components are the long-running parts of the service. Optional parts are
// nil when their feature is disabled.
type Components struct {
	Strategy    *usecase.Strategy
	Pipeline    *mid.BarPipeline
	Collector   *usecase.BarCollector
	Consumer    *pkgkafka.Consumer
	BarsHandler pkgkafka.MessageHandler
	Scheduler   *scheduler.Daily
	Runner      *usecase.CycleRunner
	HTTP        *xhttp.Server
	Closers     []Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	return &App{cfg: cfg, log: log, c: c}
}

// Run warms the strategy up, starts ingestion, the scheduler and the HTTP
// server, and blocks until ctx is cancelled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.c.Strategy.Warmup(ctx); err != nil {
		return err
	}

	a.c.Pipeline.Start(ctx)

	if a.c.Collector != nil {
		if err := a.c.Collector.Start(ctx); err != nil {
			a.log.Error("bar collector start", applogger.Error(err))
			return a.shutdown(err)
		}
		a.log.Info("bar collector started", applogger.String("url", a.cfg.Feed.WebSocketURL))
	}

	if a.c.Consumer != nil && a.c.BarsHandler != nil {
		a.c.Consumer.RegisterHandler(a.c.BarsHandler)
		if err := a.c.Consumer.Start(); err != nil {
			a.log.Error("kafka consumer start", applogger.Error(err))
			return a.shutdown(err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.c.BarsHandler.Topic()))
	}

	if err := a.c.HTTP.Start(); err != nil {
		return a.shutdown(err)
	}

	if a.c.Scheduler != nil {
		go func() {
			if err := a.c.Scheduler.Run(ctx, a.c.Runner.Run); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("scheduler stopped", applogger.Error(err))
			}
		}()
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(nil)
}

// shutdown stops ingestion first so the final density save sees every bar.
func (a *App) shutdown(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	a.log.Info("shutting down...")

	if a.c.Collector != nil {
		if err := a.c.Collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop", applogger.Error(err))
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop", applogger.Error(err))
		}
	}
	a.c.Pipeline.Stop()

	if err := a.c.Strategy.SaveDensity(ctx); err != nil {
		a.log.Warn("density save", applogger.Error(err))
	}

	if err := a.c.HTTP.Stop(ctx); err != nil {
		a.log.Error("http shutdown", applogger.Error(err))
	}

	for _, c := range a.c.Closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close", applogger.String("component", c.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return cause
}
