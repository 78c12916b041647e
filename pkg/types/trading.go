package types

import "time"

// SignalType is the trading intent expressed by a strategy, prior to
// sizing and risk validation.
type SignalType int

const (
	SignalOpen SignalType = iota
	SignalBuy
	SignalSell
	SignalClose
	SignalLiquidate
	SignalHedge
	SignalRebalance
)

func (s SignalType) String() string {
	switch s {
	case SignalOpen:
		return "OPEN"
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalClose:
		return "CLOSE"
	case SignalLiquidate:
		return "LIQUIDATE"
	case SignalHedge:
		return "HEDGE"
	case SignalRebalance:
		return "REBALANCE"
	default:
		return "UNKNOWN"
	}
}

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// Signal is a strategy's trading intent for one symbol.
type Signal struct {
	Symbol     string
	Type       SignalType
	Confidence float64 // [0,1]
	StrategyID string
	Quantity   int64   // 0 = auto-size
	TargetPct  float64 // target allocation, REBALANCE only
	Timestamp  time.Time
}

// Order is a sized, risk-approved trade instruction.
type Order struct {
	Symbol     string
	Side       Side
	Quantity   int64 // lot-aligned, always positive
	Price      float64
	StrategyID string
	Timestamp  time.Time
}

// Fill is the simulated execution of an order.
type Fill struct {
	Order      Order
	Price      float64 // order price adjusted by slippage
	Quantity   int64
	Commission float64
	Timestamp  time.Time
}

// Value returns the cash value of the fill excluding commission.
func (f Fill) Value() float64 {
	return float64(f.Quantity) * f.Price
}
