package repository

import (
	"context"

	"InOut/internal/domain/models"
)

// BarStream delivers daily closes from a live feed.
type BarStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarStore archives daily closes and serves the warm-up window.
type BarStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreBar(ctx context.Context, b models.Bar) error
	StoreBars(ctx context.Context, bars []models.Bar) error
	// LoadHistory returns up to days of the most recent rows for symbols.
	LoadHistory(ctx context.Context, symbols []string, days int) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// DensityStore persists the smoothed density series between restarts.
type DensityStore interface {
	Load(ctx context.Context) ([]float64, bool, error)
	Save(ctx context.Context, values []float64) error
}

// PortfolioProvider reports holdings, cash and quotes at cycle time.
type PortfolioProvider interface {
	Snapshot(ctx context.Context) (models.Portfolio, error)
}

// PriceMarker is implemented by providers that value holdings at the latest close.
type PriceMarker interface {
	MarkPrice(symbol string, price float64)
}

// OrderGateway hands SetHoldings instructions to the executor, in order.
type OrderGateway interface {
	Submit(ctx context.Context, instructions []models.TradeInstruction) error
}

// ReportPublisher emits the per-cycle chart scalars.
type ReportPublisher interface {
	Publish(ctx context.Context, r models.CycleReport) error
	Close() error
}

type Metrics interface {
	RecordBar(symbol string)
	RecordMessageSent(backend, topic string)
	RecordError(kind string)
	RecordTrade(symbol, side string)
	RecordLastPrice(symbol string, price float64)
	RecordExtreme(indicator string, extreme bool)
	RecordDensity(d float64)
	RecordRegime(flag int)
	RecordLatency(op string, seconds float64)
}
