package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestPublishBatchKeepsOrderAndEncodes(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "none")

	err := p.PublishBatch(context.Background(), "orders", []Message{
		{Key: []byte("c1"), Value: map[string]string{"symbol": "QQQ"}},
		{Key: []byte("c1"), Value: "raw"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.JSONEq(t, `{"symbol":"QQQ"}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, "orders", w.msgs[1].Topic)
}

func TestPublishWrapsWriterError(t *testing.T) {
	p := NewProducerWithWriter(&captureWriter{err: errors.New("down")}, "none")
	err := p.Publish(context.Background(), "reports", nil, []byte("x"))
	assert.ErrorContains(t, err, "write reports")
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	assert.Error(t, err)
}

func TestProducerConfigValidation(t *testing.T) {
	base := ProducerConfig{Brokers: []string{"k:9092"}, RequiredAcks: -1}
	require.NoError(t, base.withDefaults().validate())

	bad := base
	bad.Compression = "brotli"
	assert.ErrorContains(t, bad.withDefaults().validate(), "unsupported compression")

	bad = base
	bad.RequiredAcks = 2
	assert.ErrorContains(t, bad.withDefaults().validate(), "required acks")
}

func TestProducerConfigWriter(t *testing.T) {
	cfg := ProducerConfig{Brokers: []string{"k:9092"}, Compression: "snappy", KeyedOrdering: true}.withDefaults()
	w := cfg.writer()

	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.Snappy, w.Compression)
	assert.Equal(t, 100, w.BatchSize)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, 3, w.MaxAttempts)
}

type flakyHandler struct {
	failures int
	calls    int
	panic    bool
}

func (h *flakyHandler) Topic() string { return "bars" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.panic {
		panic("bad payload")
	}
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func testConsumer(retries int) *Consumer {
	return newConsumer(&ConsumerConfig{
		RetryMax:   retries,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		BufferSize: 1,
	})
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	h := &flakyHandler{failures: 2}
	err := testConsumer(3).handle(h, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestHandleGivesUpAfterRetryMax(t *testing.T) {
	h := &flakyHandler{failures: 10}
	err := testConsumer(2).handle(h, nil)
	assert.Error(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestHandleRecoversPanic(t *testing.T) {
	h := &flakyHandler{panic: true}
	err := testConsumer(0).handle(h, nil)
	assert.ErrorContains(t, err, "panic")
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}
