package repository

import (
	"context"
	"fmt"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	pkgkafka "InOut/pkg/kafka"

	cb "github.com/sony/gobreaker"
)

// BatchPublisher is the producer surface the Kafka adapters use.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// OrderMessage is one SetHoldings instruction on the orders topic. All
// messages of a cycle share CycleID as key and must be applied in Seq order.
type OrderMessage struct {
	CycleID string  `json:"cycle_id"`
	Seq     int     `json:"seq"`
	Symbol  string  `json:"symbol"`
	Weight  float64 `json:"weight"`
	Delta   float64 `json:"delta"`
}

// BreakerSettings tunes the circuit breaker guarding the orders topic.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	Failures    uint32
}

// KafkaOrderGateway implements OrderGateway by writing a cycle's instructions
// to Kafka in one ordered batch.
type KafkaOrderGateway struct {
	pub     BatchPublisher
	topic   string
	breaker *cb.CircuitBreaker
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewKafkaOrderGateway(pub BatchPublisher, topic string, bs BreakerSettings, metrics domrepo.Metrics) *KafkaOrderGateway {
	st := cb.Settings{
		Name:        "orders:" + topic,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
	}
	failures := bs.Failures
	if failures == 0 {
		failures = 3
	}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	return &KafkaOrderGateway{
		pub:     pub,
		topic:   topic,
		breaker: cb.NewCircuitBreaker(st),
		metrics: metrics,
		now:     time.Now,
	}
}

func (g *KafkaOrderGateway) Submit(ctx context.Context, instructions []models.TradeInstruction) error {
	if len(instructions) == 0 {
		return nil
	}
	cycleID := g.now().UTC().Format("20060102T150405.000")
	key := []byte(cycleID)
	msgs := make([]pkgkafka.Message, len(instructions))
	for i, in := range instructions {
		msgs[i] = pkgkafka.Message{
			Key: key,
			Value: OrderMessage{
				CycleID: cycleID,
				Seq:     i,
				Symbol:  in.Symbol,
				Weight:  in.Weight,
				Delta:   in.Delta,
			},
		}
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.pub.PublishBatch(ctx, g.topic, msgs)
	})
	if err != nil {
		g.metrics.RecordError("orders_publish")
		return fmt.Errorf("submit orders: %w", err)
	}
	g.metrics.RecordMessageSent("kafka", g.topic)
	return nil
}

// State exposes the breaker state for health reporting.
func (g *KafkaOrderGateway) State() string { return g.breaker.State().String() }

var _ domrepo.OrderGateway = (*KafkaOrderGateway)(nil)
