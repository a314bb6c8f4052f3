package middleware

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	"InOut/internal/service/ratelimit"
	"InOut/pkg/util"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	OnBar(ctx context.Context, b models.Bar) error
}

// BarPipeline sits between a feed and the strategy. It validates and
// normalizes bars to their UTC trading day, coalesces bursts of updates to a
// day that was already applied, and buffers bars the downstream rejected for
// a later retry. The first close of every (symbol, day) is forwarded at once.
type BarPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	limiter *ratelimit.Limiter
	bufCh   chan models.Bar
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	allowed map[string]bool // empty means every symbol
	retry   time.Duration

	fwdMu   sync.Mutex // keeps per-symbol updates in arrival order
	stateMu sync.Mutex
	applied map[string]time.Time  // newest day forwarded per symbol
	pending map[string]models.Bar // throttled same-day updates, latest wins
}

type PipelineOption func(*BarPipeline)

// WithLimiter throttles repeated updates of an already applied day per symbol.
func WithLimiter(l *ratelimit.Limiter) PipelineOption {
	return func(p *BarPipeline) { p.limiter = l }
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *BarPipeline) {
		if n > 0 {
			p.bufCh = make(chan models.Bar, n)
		}
	}
}

// WithSymbols drops bars for symbols outside the list.
func WithSymbols(symbols []string) PipelineOption {
	return func(p *BarPipeline) {
		for _, s := range symbols {
			p.allowed[strings.ToUpper(s)] = true
		}
	}
}

// WithRetryDelay sets the pause between buffered retries.
func WithRetryDelay(d time.Duration) PipelineOption {
	return func(p *BarPipeline) {
		if d > 0 {
			p.retry = d
		}
	}
}

func NewBarPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *BarPipeline {
	p := &BarPipeline{
		proc:    proc,
		metrics: metrics,
		bufCh:   make(chan models.Bar, 256),
		stopCh:  make(chan struct{}),
		allowed: make(map[string]bool),
		retry:   time.Second,
		applied: make(map[string]time.Time),
		pending: make(map[string]models.Bar),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches background flushing of buffered bars.
func (p *BarPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		tick := time.NewTicker(p.retry)
		defer tick.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-tick.C:
				p.FlushPending(ctx)
			case b := <-p.bufCh:
				p.fwdMu.Lock()
				err := p.proc.OnBar(ctx, b)
				p.fwdMu.Unlock()
				if err == nil {
					p.markApplied(b)
				} else {
					p.metrics.RecordError("pipeline_flush")
					select {
					case <-time.After(p.retry):
					case <-p.stopCh:
						return
					}
					select {
					case p.bufCh <- b:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				}
			}
		}
	}()
}

// Stop applies held updates and stops the background flushing.
func (p *BarPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
	p.FlushPending(context.Background())
}

// Process validates and forwards b. A same-day update arriving faster than
// the limiter allows is held as the symbol's pending close and applied by
// FlushPending. When the downstream fails the bar is buffered for retry; an
// error is returned only when it could not be kept at all.
func (p *BarPipeline) Process(ctx context.Context, b models.Bar) error {
	start := time.Now()
	b, err := normalize(b)
	if err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if len(p.allowed) > 0 && !p.allowed[b.Symbol] {
		return nil
	}

	p.fwdMu.Lock()
	defer p.fwdMu.Unlock()

	p.stateMu.Lock()
	last, seen := p.applied[b.Symbol]
	sameDay := seen && last.Equal(b.Time)
	if sameDay && p.limiter != nil && !p.limiter.Allow(b.Symbol) {
		p.pending[b.Symbol] = b
		p.stateMu.Unlock()
		p.metrics.RecordError("pipeline_coalesce")
		return nil
	}
	held, hasHeld := p.pending[b.Symbol]
	if hasHeld {
		delete(p.pending, b.Symbol)
	}
	p.stateMu.Unlock()

	// a held update for an older day still has to land before b
	if hasHeld && !held.Time.Equal(b.Time) {
		if err := p.forward(ctx, held); err != nil {
			return err
		}
	}
	if err := p.forward(ctx, b); err != nil {
		return err
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// FlushPending applies every held same-day update.
func (p *BarPipeline) FlushPending(ctx context.Context) {
	p.fwdMu.Lock()
	defer p.fwdMu.Unlock()

	p.stateMu.Lock()
	held := make([]models.Bar, 0, len(p.pending))
	for sym, b := range p.pending {
		held = append(held, b)
		delete(p.pending, sym)
	}
	p.stateMu.Unlock()

	for _, b := range held {
		if err := p.forward(ctx, b); err != nil {
			p.metrics.RecordError("pipeline_flush")
		}
	}
}

// Pending is the number of held same-day updates.
func (p *BarPipeline) Pending() int {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return len(p.pending)
}

func (p *BarPipeline) forward(ctx context.Context, b models.Bar) error {
	if err := p.proc.OnBar(ctx, b); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- b:
			return nil
		default:
			p.metrics.RecordError("pipeline_buffer_full")
			return fmt.Errorf("pipeline downstream: %w", err)
		}
	}
	p.markApplied(b)
	return nil
}

func (p *BarPipeline) markApplied(b models.Bar) {
	p.stateMu.Lock()
	if last, ok := p.applied[b.Symbol]; !ok || b.Time.After(last) {
		p.applied[b.Symbol] = b.Time
	}
	p.stateMu.Unlock()
}

// Buffered is the number of bars waiting for retry.
func (p *BarPipeline) Buffered() int { return len(p.bufCh) }

func normalize(b models.Bar) (models.Bar, error) {
	b.Symbol = strings.ToUpper(strings.TrimSpace(b.Symbol))
	if b.Symbol == "" {
		return b, fmt.Errorf("symbol empty")
	}
	if b.Time.IsZero() {
		return b, fmt.Errorf("time invalid")
	}
	if b.Close <= 0 || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
		return b, fmt.Errorf("close must be positive, got %v", b.Close)
	}
	b.Time = util.Day(b.Time)
	return b, nil
}
