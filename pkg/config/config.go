package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Strategy struct {
		Bull            string   `yaml:"bull" default:"QQQ" validate:"required"`
		Bear            []string `yaml:"bear" default:"[\"TLT\",\"IEF\"]" validate:"min=1,dive,required"`
		Benchmark       string   `yaml:"benchmark" default:"SPY"`
		Lookback        int      `yaml:"lookback" default:"1260" validate:"gte=100"`
		Window          int      `yaml:"window" default:"11" validate:"gte=1"`
		Shift           int      `yaml:"shift" default:"60" validate:"gte=0"`
		Trailing        int      `yaml:"trailing" default:"45" validate:"gte=3"`
		StatAlpha       float64  `yaml:"stat_alpha" default:"5" validate:"gt=0,lt=100"`
		EMASpan         int      `yaml:"ema_span" default:"50" validate:"gte=1"`
		OutMomentum     int      `yaml:"out_momentum" default:"40" validate:"gte=2"`
		DensityCapacity int      `yaml:"density_capacity" default:"100" validate:"gte=3"`
		DensitySeed     int      `yaml:"density_seed" default:"5" validate:"gte=0"`
	} `yaml:"strategy"`
	Schedule struct {
		Enabled    bool          `yaml:"enabled" default:"true"`
		Timezone   string        `yaml:"timezone" default:"America/New_York"`
		MarketOpen string        `yaml:"market_open" default:"09:30"`
		Delay      time.Duration `yaml:"delay" default:"120m"`
	} `yaml:"schedule"`
	Feed struct {
		Type           string        `yaml:"type" default:"none" validate:"oneof=none kafka websocket"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		RatePerSecond  float64       `yaml:"rate_per_second" default:"50"`
		Burst          int           `yaml:"burst" default:"20"`
	} `yaml:"feed"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		BarsTopic    string   `yaml:"bars_topic" default:"inout.bars"`
		OrdersTopic  string   `yaml:"orders_topic" default:"inout.orders"`
		ReportsTopic string   `yaml:"reports_topic" default:"inout.reports"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"inout"`
			Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
		Breaker struct {
			MaxRequests uint32        `yaml:"max_requests" default:"1"`
			Interval    time.Duration `yaml:"interval" default:"60s"`
			Timeout     time.Duration `yaml:"timeout" default:"30s"`
			Failures    uint32        `yaml:"failures" default:"3"`
		} `yaml:"breaker"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"inout"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		Compression      string        `yaml:"compression" default:"lz4" validate:"oneof=lz4 zstd none"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"4" validate:"gte=1"`
		MaxIdleConns     int           `yaml:"max_idle_conns" default:"2" validate:"gte=0"`
		ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" default:"5m"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"inout"`
	} `yaml:"redis"`
	Execution struct {
		Mode        string  `yaml:"mode" default:"paper" validate:"oneof=paper kafka"`
		InitialCash float64 `yaml:"initial_cash" default:"100000" validate:"gt=0"`
	} `yaml:"execution"`
}

var validate = validator.New()

// Default returns a configuration populated only from default tags.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BARS_TOPIC"); v != "" {
		c.Kafka.BarsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("BULL_TICKER"); v != "" {
		c.Strategy.Bull = v
	}
	if v := os.Getenv("BEAR_TICKERS"); v != "" {
		c.Strategy.Bear = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Feed.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("feed.type 'kafka' requires kafka.brokers")
	}
	if c.Feed.Type == "websocket" && c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.websocket_url is required for feed.type 'websocket'")
	}
	if c.Execution.Mode == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("execution.mode 'kafka' requires kafka.brokers")
	}
	if c.Execution.Mode == "kafka" && !c.Redis.Enabled {
		return fmt.Errorf("execution.mode 'kafka' reads the portfolio from redis; enable redis")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, err := time.Parse("15:04", c.Schedule.MarketOpen); err != nil {
		return fmt.Errorf("schedule.market_open must be HH:MM, got '%s'", c.Schedule.MarketOpen)
	}
	if c.Strategy.DensitySeed > c.Strategy.DensityCapacity {
		return fmt.Errorf("strategy.density_seed cannot exceed strategy.density_capacity")
	}
	return nil
}

// EMAFactor is the smoothing weight derived from the configured span.
func (c *Config) EMAFactor() float64 {
	return 2.0 / float64(1+c.Strategy.EMASpan)
}
