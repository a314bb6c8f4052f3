package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsTotal     *prometheus.CounterVec
	messagesSent  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	tradesTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	extremeFlags  *prometheus.GaugeVec
	stressDensity prometheus.Gauge
	regimeFlag    prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registering its collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		barsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inout_bars_total",
				Help: "Total number of daily bars applied to the price history",
			},
			[]string{"symbol"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inout_messages_sent_total",
				Help: "Total number of messages sent to a backend",
			},
			[]string{"backend", "topic"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inout_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		tradesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inout_trades_total",
				Help: "Total number of SetHoldings instructions emitted",
			},
			[]string{"symbol", "side"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inout_last_price",
				Help: "Last recorded close for a symbol",
			},
			[]string{"symbol"},
		),
		extremeFlags: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inout_extreme_flags",
				Help: "1 when the indicator was extreme at the last cycle",
			},
			[]string{"indicator"},
		),
		stressDensity: f.NewGauge(prometheus.GaugeOpts{
			Name: "inout_stress_density",
			Help: "Smoothed stress density after the last cycle",
		}),
		regimeFlag: f.NewGauge(prometheus.GaugeOpts{
			Name: "inout_regime_flag",
			Help: "Effective regime, 1 for IN and 0 for OUT",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inout_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBar counts a bar applied for symbol.
func (r *Recorder) RecordBar(symbol string) {
	r.barsTotal.WithLabelValues(symbol).Inc()
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, topic string) {
	r.messagesSent.WithLabelValues(backend, topic).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTrade counts an instruction; side is "buy" or "sell".
func (r *Recorder) RecordTrade(symbol, side string) {
	r.tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordExtreme records whether indicator was flagged.
func (r *Recorder) RecordExtreme(indicator string, extreme bool) {
	v := 0.0
	if extreme {
		v = 1
	}
	r.extremeFlags.WithLabelValues(indicator).Set(v)
}

// RecordDensity records the smoothed stress density.
func (r *Recorder) RecordDensity(d float64) {
	r.stressDensity.Set(d)
}

// RecordRegime records the effective regime flag.
func (r *Recorder) RecordRegime(flag int) {
	r.regimeFlag.Set(float64(flag))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
