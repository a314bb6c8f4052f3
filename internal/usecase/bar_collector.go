package usecase

import (
	"context"

	"InOut/internal/domain/models"
	drepo "InOut/internal/domain/repository"
	"InOut/pkg/logger"
)

// BarCollector reads daily closes from a live stream into a sink.
type BarCollector struct {
	stream  drepo.BarStream
	sink    BarSink
	metrics drepo.Metrics
	log     *logger.Logger
	pipe    interface {
		Start(ctx context.Context)
		Stop()
	}
}

// NewBarCollector creates a collector. When sink also has Start/Stop (the
// bar pipeline) its lifecycle follows the collector.
func NewBarCollector(stream drepo.BarStream, sink BarSink, metrics drepo.Metrics, log *logger.Logger) *BarCollector {
	if log == nil {
		log = logger.Nop()
	}
	c := &BarCollector{stream: stream, sink: sink, metrics: metrics, log: log}
	if p, ok := sink.(interface {
		Start(ctx context.Context)
		Stop()
	}); ok {
		c.pipe = p
	}
	return c
}

// IsConnected returns true if the stream is connected.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	barCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, barCh, errCh)
	return nil
}

func (c *BarCollector) consume(ctx context.Context, barCh <-chan *models.Bar, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// stream ended without an error: ctx is done
				return
			}
			c.metrics.RecordError("stream")
			c.log.Warn("bar stream failed, reconnecting", logger.Error(err))
			if !c.reconnect(ctx) {
				return
			}
			barCh, errCh = c.stream.Read(ctx)
		case b, ok := <-barCh:
			if !ok {
				barCh = nil
				continue
			}
			if b == nil {
				continue
			}
			if err := c.sink.Process(ctx, *b); err != nil {
				c.log.Debug("bar rejected", logger.String("symbol", b.Symbol), logger.Error(err))
			}
		}
	}
}

// reconnect retries until the stream is back or ctx ends.
func (c *BarCollector) reconnect(ctx context.Context) bool {
	for {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.metrics.RecordError("stream_reconnect")
		c.log.Warn("reconnect failed", logger.Error(err))
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *BarCollector) Shutdown(_ context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
