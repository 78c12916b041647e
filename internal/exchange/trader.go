package exchange

import (
	"fmt"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Trader turns a validated order into a fill. The only implementation is
// the simulator; live connectivity is out of scope for this engine.
type Trader interface {
	Execute(order types.Order, bar types.OHLCV) (types.Fill, error)
}

// SimTrader fills orders instantly and completely at the order's
// reference price moved by the slippage fraction against the trader.
// There is no queue position or partial-fill modeling.
type SimTrader struct {
	commission float64
	slippage   float64
}

// NewSimTrader returns a simulated execution venue.
func NewSimTrader(commission, slippage float64) *SimTrader {
	return &SimTrader{commission: commission, slippage: slippage}
}

// Execute implements Trader. The bar supplies the fill timestamp so the
// trade log lines up with simulated time.
func (t *SimTrader) Execute(order types.Order, bar types.OHLCV) (types.Fill, error) {
	if order.Quantity <= 0 {
		return types.Fill{}, fmt.Errorf("cannot execute empty order for %s", order.Symbol)
	}
	if order.Price <= 0 {
		return types.Fill{}, fmt.Errorf("cannot execute unpriced order for %s", order.Symbol)
	}

	price := order.Price
	switch order.Side {
	case types.SideBuy:
		price *= 1 + t.slippage
	case types.SideSell:
		price *= 1 - t.slippage
	}

	return types.Fill{
		Order:      order,
		Price:      price,
		Quantity:   order.Quantity,
		Commission: float64(order.Quantity) * price * t.commission,
		Timestamp:  bar.Timestamp,
	}, nil
}
