package models

import "time"

// IndicatorFlag is the stress reading of one cross-asset indicator on the latest day.
type IndicatorFlag struct {
	Name      string  `json:"name"`
	Deviation float64 `json:"deviation"`
	Threshold float64 `json:"threshold"`
	Extreme   bool    `json:"extreme"`
}

// CycleReport is the outcome of one daily decision cycle, including the
// chart scalars (stress density, regime flag, benchmark equity lines).
type CycleReport struct {
	Timestamp      time.Time          `json:"timestamp"`
	Skipped        bool               `json:"skipped"`
	Reason         string             `json:"reason,omitempty"`
	StressDensity  float64            `json:"stress_density"`
	CurrentDensity float64            `json:"current_density"`
	RegimeFlag     int                `json:"regime_flag"`
	OutFired       bool               `json:"out_fired"`
	InFired        bool               `json:"in_fired"`
	DebtFiltered   bool               `json:"debt_filtered"`
	Indicators     []IndicatorFlag    `json:"indicators,omitempty"`
	OutWeights     map[string]float64 `json:"out_weights,omitempty"`
	Targets        []TargetWeight     `json:"targets,omitempty"`
	Instructions   []TradeInstruction `json:"instructions"`
	PortfolioValue float64            `json:"portfolio_value"`
	Benchmarks     map[string]float64 `json:"benchmarks,omitempty"`
	ExecutionError string             `json:"execution_error,omitempty"`
}

// StrategyState is a read-only view of the session for reporting.
type StrategyState struct {
	Regime        int                `json:"regime"`
	RegimeHistory int                `json:"regime_history_len"`
	StressDensity float64            `json:"stress_density"`
	DensityLen    int                `json:"density_len"`
	OutWeights    map[string]float64 `json:"out_weights"`
	HistoryRows   int                `json:"history_rows"`
	FirstDate     *time.Time         `json:"first_date,omitempty"`
	LastDate      *time.Time         `json:"last_date,omitempty"`
	LastCycle     *CycleReport       `json:"last_cycle,omitempty"`
}
