package models

// Holding is the executor's view of one position.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// Invested reports whether any long or short position is open.
func (h Holding) Invested() bool { return h.Quantity != 0 }

// Portfolio is a point-in-time snapshot delivered by the execution collaborator.
// Quotes lists instruments with a usable current price.
type Portfolio struct {
	TotalValue float64            `json:"total_value"`
	Cash       float64            `json:"cash"`
	Holdings   map[string]Holding `json:"holdings"`
	Quotes     map[string]float64 `json:"quotes"`
}

// Holding returns the position for symbol, zero-valued when absent.
func (p Portfolio) Holding(symbol string) Holding {
	if h, ok := p.Holdings[symbol]; ok {
		return h
	}
	return Holding{Symbol: symbol}
}

// Quote returns the current price for symbol if one is available.
func (p Portfolio) Quote(symbol string) (float64, bool) {
	q, ok := p.Quotes[symbol]
	if !ok || q <= 0 {
		return 0, false
	}
	return q, true
}

// TargetWeight is a desired portfolio fraction; 0 means close the position.
type TargetWeight struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// TradeInstruction asks the executor to set holdings of Symbol to Weight.
// Delta is the signed weight change that motivated it.
type TradeInstruction struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
	Delta  float64 `json:"delta"`
}
