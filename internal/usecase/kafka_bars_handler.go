package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	pkgkafka "InOut/pkg/kafka"
	"InOut/pkg/util"
)

// BarSink accepts bars for ingestion.
type BarSink interface {
	Process(ctx context.Context, b models.Bar) error
}

// KafkaBarsHandler consumes daily close messages and feeds the pipeline.
type KafkaBarsHandler struct {
	topic   string
	sink    BarSink
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, sink BarSink, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, date | t, c}; t is unix seconds or ms
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		Date   string  `json:"date"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bar: %w", err)
	}

	var ts time.Time
	switch {
	case m.Date != "":
		d, ok := util.ParseTime(m.Date)
		if !ok {
			h.metrics.RecordError("consumer_unmarshal")
			return fmt.Errorf("decode bar date %q", m.Date)
		}
		ts = d
	case m.T > 0:
		ts = util.FromUnix(m.T)
	}

	start := time.Now()
	err := h.sink.Process(ctx, models.Bar{Symbol: m.Symbol, Time: ts, Close: m.C})
	h.metrics.RecordLatency("consumer_bar", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_process")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
