package di

import (
	"context"
	"fmt"
	"time"

	"InOut/internal/domain/repository"
	"InOut/internal/handler/api"
	mid "InOut/internal/middleware"
	internalrepo "InOut/internal/repository"
	"InOut/internal/service/feed"
	"InOut/internal/service/ratelimit"
	"InOut/internal/services/inout"
	"InOut/internal/usecase"
	"InOut/pkg/cache"
	pkgch "InOut/pkg/clickhouse"
	"InOut/pkg/config"
	xhttp "InOut/pkg/http"
	pkgkafka "InOut/pkg/kafka"
	"InOut/pkg/logger"
	"InOut/pkg/metrics"
	"InOut/pkg/scheduler"
	"InOut/pkg/server"
)

// Execution pairs the portfolio source with the order sink of one mode.
type Execution struct {
	Portfolio repository.PortfolioProvider
	Orders    repository.OrderGateway
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSession builds the strategy state from configuration.
func ProvideSession(cfg *config.Config) *inout.Session {
	s := cfg.Strategy
	p := inout.Params{
		Lookback:        s.Lookback,
		Window:          s.Window,
		Shift:           s.Shift,
		Trailing:        s.Trailing,
		StatAlpha:       s.StatAlpha,
		EMAF:            cfg.EMAFactor(),
		OutMomentum:     s.OutMomentum,
		DensityCapacity: s.DensityCapacity,
		DensitySeed:     s.DensitySeed,
	}
	return inout.NewSession(p, inout.NewUniverse(s.Bull, s.Bear, s.Benchmark))
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	c := cfg.ClickHouse
	if !c.Enabled {
		return nil, nil
	}
	client, err := pkgch.Open(context.Background(), ClickHouseSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ClickHouseSettings maps the clickhouse config section onto the client.
func ClickHouseSettings(cfg *config.Config) pkgch.Settings {
	c := cfg.ClickHouse
	return pkgch.Settings{
		Host:             c.Host,
		Port:             c.Port,
		Database:         c.Database,
		User:             c.User,
		Password:         c.Password,
		UseHTTP:          c.UseHTTP,
		Compression:      c.Compression,
		DialTimeout:      c.DialTimeout,
		ReadTimeout:      c.ReadTimeout,
		MaxExecutionTime: c.MaxExecutionTime,
		Pool: pkgch.Pool{
			MaxOpen:     c.MaxOpenConns,
			MaxIdle:     c.MaxIdleConns,
			MaxLifetime: c.ConnMaxLifetime,
		},
	}
}

func ProvideBarStore(ch *pkgch.Client, cfg *config.Config, l *logger.Logger) (repository.BarStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHBarStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideCache creates the Redis cache, or an in-process one when Redis is
// disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(10000)), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideDensityStore persists the density series in the cache.
func ProvideDensityStore(c cache.Service) repository.DensityStore {
	return internalrepo.NewCacheDensityStore(c)
}

// ProvideKafkaProducer creates a Kafka producer, or nil without brokers.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:       k.Brokers,
		RequiredAcks:  k.RequiredAcks,
		Compression:   k.Compression,
		MaxAttempts:   k.Producer.MaxAttempts,
		WriteTimeout:  k.Producer.WriteTimeout,
		ReadTimeout:   k.Producer.ReadTimeout,
		BatchSize:     k.Producer.BatchSize,
		BatchBytes:    k.Producer.BatchBytes,
		Linger:        k.Producer.Linger,
		KeyedOrdering: true,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher emits cycle reports when Kafka is configured.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config, m repository.Metrics) repository.ReportPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic, m)
}

// ProvideExecution selects the paper broker or the Kafka order gateway with
// a portfolio read from the cache.
func ProvideExecution(cfg *config.Config, c cache.Service, producer *pkgkafka.Producer, m repository.Metrics) (Execution, error) {
	switch cfg.Execution.Mode {
	case "kafka":
		if producer == nil {
			return Execution{}, fmt.Errorf("execution mode kafka needs a producer")
		}
		gw := internalrepo.NewKafkaOrderGateway(producer, cfg.Kafka.OrdersTopic, internalrepo.BreakerSettings{
			MaxRequests: cfg.Kafka.Breaker.MaxRequests,
			Interval:    cfg.Kafka.Breaker.Interval,
			Timeout:     cfg.Kafka.Breaker.Timeout,
			Failures:    cfg.Kafka.Breaker.Failures,
		}, m)
		return Execution{Portfolio: internalrepo.NewCachePortfolio(c), Orders: gw}, nil
	default:
		broker := internalrepo.NewPaperBroker(cfg.Execution.InitialCash)
		return Execution{Portfolio: broker, Orders: broker}, nil
	}
}

// ProvideStrategy assembles the strategy use case.
func ProvideStrategy(
	session *inout.Session,
	exec Execution,
	m repository.Metrics,
	l *logger.Logger,
	bars repository.BarStore,
	density repository.DensityStore,
	reports repository.ReportPublisher,
) *usecase.Strategy {
	opts := []usecase.StrategyOption{usecase.WithDensityStore(density)}
	if bars != nil {
		opts = append(opts, usecase.WithBarStore(bars))
	}
	if reports != nil {
		opts = append(opts, usecase.WithReportPublisher(reports))
	}
	return usecase.NewStrategy(session, exec.Portfolio, exec.Orders, m, l, opts...)
}

// ProvideBarPipeline builds the validation and same-day coalescing stage in front of
// the strategy.
func ProvideBarPipeline(strategy *usecase.Strategy, session *inout.Session, m repository.Metrics, cfg *config.Config) *mid.BarPipeline {
	return mid.NewBarPipeline(strategy, m,
		mid.WithLimiter(ratelimit.New(cfg.Feed.RatePerSecond, cfg.Feed.Burst)),
		mid.WithSymbols(session.Universe().Symbols()),
		mid.WithBufferSize(cfg.Kafka.Consumer.BufferSize),
	)
}

// ProvideBarCollector creates the WebSocket collector when that feed is selected.
func ProvideBarCollector(cfg *config.Config, session *inout.Session, pipe *mid.BarPipeline, m repository.Metrics, l *logger.Logger) *usecase.BarCollector {
	if cfg.Feed.Type != "websocket" {
		return nil
	}
	stream := feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		session.Universe().Symbols(),
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		l,
	)
	return usecase.NewBarCollector(stream, pipe, m, l)
}

// ProvideKafkaConsumer creates a Kafka consumer when bars arrive over Kafka.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Feed.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler routes the bars topic into the pipeline.
func ProvideKafkaBarsHandler(cfg *config.Config, pipe *mid.BarPipeline, m repository.Metrics) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, pipe, m)
}

// ProvideScheduler creates the daily trigger, or nil when disabled.
func ProvideScheduler(cfg *config.Config, l *logger.Logger) (*scheduler.Daily, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	return scheduler.NewDaily(cfg.Schedule.Timezone, cfg.Schedule.MarketOpen, cfg.Schedule.Delay, l)
}

// ProvideCycleRunner guards the scheduled cycle with a per-day cache lock.
func ProvideCycleRunner(strategy *usecase.Strategy, c cache.Service, l *logger.Logger) *usecase.CycleRunner {
	return usecase.NewCycleRunner(strategy, c, l)
}

// ProvideHealthChecks collects readiness probes of enabled dependencies.
func ProvideHealthChecks(bars repository.BarStore, c cache.Service, collector *usecase.BarCollector) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := c.Exists(ctx, "health")
			return err
		},
	}
	if bars != nil {
		checks["clickhouse"] = bars.Health
	}
	if collector != nil {
		checks["feed"] = func(context.Context) error {
			if !collector.IsConnected() {
				return fmt.Errorf("feed disconnected")
			}
			return nil
		}
	}
	return checks
}

// ProvideHTTPServer exposes the strategy API and the metrics endpoint.
func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, strategy *usecase.Strategy, pipe *mid.BarPipeline, checks map[string]api.HealthCheck) *xhttp.Server {
	h := api.NewStrategyEchoHandler(l, strategy, pipe, checks)
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	strategy *usecase.Strategy,
	pipe *mid.BarPipeline,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	sched *scheduler.Daily,
	runner *usecase.CycleRunner,
	httpServer *xhttp.Server,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	c cache.Service,
) *server.App {
	comps := server.Components{
		Strategy:  strategy,
		Pipeline:  pipe,
		Collector: collector,
		Consumer:  consumer,
		Scheduler: sched,
		Runner:    runner,
		HTTP:      httpServer,
	}
	if consumer != nil {
		comps.BarsHandler = kh
	}
	if producer != nil {
		comps.Closers = append(comps.Closers, server.Closer{Name: "kafka producer", Close: producer.Close})
	}
	if ch != nil {
		comps.Closers = append(comps.Closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	comps.Closers = append(comps.Closers, server.Closer{Name: "cache", Close: c.Close})
	return server.New(cfg, l, comps)
}
