package inout

import (
	"math"
	"sort"
	"time"

	"InOut/internal/domain/models"
	"InOut/internal/services/features"
)

// PriceHistory is a bounded, time-ordered table of daily closes with one
// column per instrument, plus the shifted centered-mean baseline derived from it.
//
// Every mutation recomputes the baseline for all columns, costing
// O(rows × columns × window). Values returned by Column and Baseline must not
// be modified by callers.
type PriceHistory struct {
	lookback int
	window   int
	shift    int

	times    []time.Time
	order    []string
	cols     map[string][]float64
	baseline map[string][]float64
}

// NewPriceHistory creates an empty table keeping at most lookback rows. The
// baseline is a centered mean over window rows shifted forward by shift rows.
func NewPriceHistory(lookback, window, shift int) *PriceHistory {
	return &PriceHistory{
		lookback: lookback,
		window:   window,
		shift:    shift,
		cols:     make(map[string][]float64),
		baseline: make(map[string][]float64),
	}
}

// Seed replaces the table with bars for symbols, keeping only dates on which
// every symbol has a close, then trims to the lookback window.
func (h *PriceHistory) Seed(symbols []string, bars []models.Bar) {
	byTime := make(map[time.Time]map[string]float64)
	for _, b := range bars {
		row, ok := byTime[b.Time]
		if !ok {
			row = make(map[string]float64, len(symbols))
			byTime[b.Time] = row
		}
		row[b.Symbol] = b.Close
	}

	times := make([]time.Time, 0, len(byTime))
	for ts, row := range byTime {
		complete := true
		for _, s := range symbols {
			v, ok := row[s]
			if !ok || math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			times = append(times, ts)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	h.times = times
	h.order = append([]string(nil), symbols...)
	h.cols = make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		col := make([]float64, len(times))
		for i, ts := range times {
			col[i] = byTime[ts][s]
		}
		h.cols[s] = col
	}
	h.truncate()
	h.recompute()
}

// Append inserts or overwrites the close of symbol at ts. A new timestamp
// opens a row whose other columns are missing; a new symbol opens a column.
func (h *PriceHistory) Append(ts time.Time, symbol string, price float64) {
	if _, ok := h.cols[symbol]; !ok {
		col := make([]float64, len(h.times))
		for i := range col {
			col[i] = math.NaN()
		}
		h.cols[symbol] = col
		h.order = append(h.order, symbol)
	}

	i := sort.Search(len(h.times), func(i int) bool { return !h.times[i].Before(ts) })
	if i == len(h.times) || !h.times[i].Equal(ts) {
		h.times = append(h.times, time.Time{})
		copy(h.times[i+1:], h.times[i:])
		h.times[i] = ts
		for s, col := range h.cols {
			col = append(col, 0)
			copy(col[i+1:], col[i:])
			col[i] = math.NaN()
			h.cols[s] = col
		}
	}
	h.cols[symbol][i] = price

	h.truncate()
	h.recompute()
}

func (h *PriceHistory) truncate() {
	if h.lookback <= 0 || len(h.times) <= h.lookback {
		return
	}
	drop := len(h.times) - h.lookback
	h.times = append([]time.Time(nil), h.times[drop:]...)
	for s, col := range h.cols {
		h.cols[s] = append([]float64(nil), col[drop:]...)
	}
}

func (h *PriceHistory) recompute() {
	h.baseline = make(map[string][]float64, len(h.cols))
	for s, col := range h.cols {
		h.baseline[s] = features.ShiftForward(features.CenteredRollingMean(col, h.window), h.shift)
	}
}

// Empty reports whether the table has no rows or no columns.
func (h *PriceHistory) Empty() bool { return len(h.times) == 0 || len(h.cols) == 0 }

// Len is the number of rows.
func (h *PriceHistory) Len() int { return len(h.times) }

// Lookback is the row bound.
func (h *PriceHistory) Lookback() int { return h.lookback }

// Has reports whether symbol has a column.
func (h *PriceHistory) Has(symbol string) bool {
	_, ok := h.cols[symbol]
	return ok
}

// Symbols returns the column names in insertion order.
func (h *PriceHistory) Symbols() []string { return append([]string(nil), h.order...) }

// Times returns the row timestamps, oldest first.
func (h *PriceHistory) Times() []time.Time { return append([]time.Time(nil), h.times...) }

// Column returns the closes of symbol, nil when unknown.
func (h *PriceHistory) Column(symbol string) []float64 { return h.cols[symbol] }

// Baseline returns the shifted centered mean of symbol, nil when unknown.
func (h *PriceHistory) Baseline(symbol string) []float64 { return h.baseline[symbol] }

// Last returns the latest close of symbol, NaN when unknown or missing.
func (h *PriceHistory) Last(symbol string) float64 { return features.Last(h.cols[symbol]) }

// FromEnd returns the close k rows from the end (k=1 is the latest row).
func (h *PriceHistory) FromEnd(symbol string, k int) (float64, bool) {
	col := h.cols[symbol]
	if k < 1 || k > len(col) {
		return math.NaN(), false
	}
	v := col[len(col)-k]
	return v, !math.IsNaN(v)
}
