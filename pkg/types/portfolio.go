package types

import "time"

// Position is a holding in one symbol, carried at weighted-average cost.
// LastPrice is the most recent mark used for valuation.
type Position struct {
	Symbol    string  `json:"symbol"`
	Quantity  int64   `json:"quantity"`
	AvgCost   float64 `json:"avg_cost"`
	LastPrice float64 `json:"last_price"`
}

// MarkValue returns the position value at the latest mark.
func (p Position) MarkValue() float64 {
	return float64(p.Quantity) * p.LastPrice
}

// UnrealizedPnL returns the open profit relative to average cost.
func (p Position) UnrealizedPnL() float64 {
	return float64(p.Quantity) * (p.LastPrice - p.AvgCost)
}

// Snapshot is an immutable view of portfolio state handed to sizing and
// risk decisions. Mutations happen only inside the portfolio manager.
type Snapshot struct {
	Cash           float64             `json:"cash"`
	InitialCapital float64             `json:"initial_capital"`
	Positions      map[string]Position `json:"positions"`
	PeakEquity     float64             `json:"peak_equity"`
	MaxDrawdown    float64             `json:"max_drawdown"`
	Timestamp      time.Time           `json:"timestamp"`
}

// Equity returns cash plus the mark value of all positions.
func (s Snapshot) Equity() float64 {
	total := s.Cash
	for _, p := range s.Positions {
		total += p.MarkValue()
	}
	return total
}

// PositionsValue returns the combined mark value of all positions.
func (s Snapshot) PositionsValue() float64 {
	total := 0.0
	for _, p := range s.Positions {
		total += p.MarkValue()
	}
	return total
}

// Position returns the holding for symbol, if any.
func (s Snapshot) Position(symbol string) (Position, bool) {
	p, ok := s.Positions[symbol]
	return p, ok
}

// Holding returns the held quantity for symbol, zero when flat.
func (s Snapshot) Holding(symbol string) int64 {
	return s.Positions[symbol].Quantity
}

// Exposure returns the symbol's mark value as a fraction of equity.
func (s Snapshot) Exposure(symbol string) float64 {
	equity := s.Equity()
	if equity <= 0 {
		return 0
	}
	return s.Positions[symbol].MarkValue() / equity
}

// AggregateExposure returns all positions' mark value as a fraction of equity.
func (s Snapshot) AggregateExposure() float64 {
	equity := s.Equity()
	if equity <= 0 {
		return 0
	}
	return s.PositionsValue() / equity
}

// EquityRecord is one observation of the equity curve, appended once per
// simulated bar.
type EquityRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	TotalValue     float64   `json:"total_value"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	ReturnPct      float64   `json:"return_pct"`
	DrawdownPct    float64   `json:"drawdown_pct"`
	PeakValue      float64   `json:"peak_value"`
}

// Trade is one executed trade in the run's trade log.
type Trade struct {
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	Commission  float64   `json:"commission"`
	RealizedPnL float64   `json:"realized_pnl"`
	StrategyID  string    `json:"strategy_id"`
	Timestamp   time.Time `json:"timestamp"`
}
