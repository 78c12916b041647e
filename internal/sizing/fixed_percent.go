package sizing

import (
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// FixedPercent trades a fixed fraction of available cash on entries and
// sells the same fraction of the holding on partial exits.
//
//   - OPEN buys only when flat, so a repeated entry rule cannot stack
//     duplicate positions.
//   - BUY adds regardless of the current holding.
//   - SELL and CLOSE sell percent of the holding, not all of it.
//   - LIQUIDATE and HEDGE exit the full position.
//   - REBALANCE trades toward the signal's target allocation.
type FixedPercent struct {
	percent float64
	lotSize int64
}

// NewFixedPercent returns a fixed-fraction sizer.
func NewFixedPercent(percent float64, lotSize int64) *FixedPercent {
	return &FixedPercent{percent: percent, lotSize: lotSize}
}

// Name implements Sizer.
func (f *FixedPercent) Name() string { return config.SizingFixedPercent }

// Size implements Sizer.
func (f *FixedPercent) Size(sig types.Signal, snap types.Snapshot, price float64) int64 {
	if price <= 0 {
		return 0
	}
	holding := snap.Holding(sig.Symbol)

	// An explicit quantity on the signal bypasses the percent math but
	// still respects lots, cash and the current holding.
	if sig.Quantity > 0 {
		return f.explicit(sig, snap, price, holding)
	}

	switch sig.Type {
	case types.SignalOpen:
		if holding > 0 {
			return 0
		}
		return buyQuantity(snap.Cash, f.percent, price, f.lotSize)
	case types.SignalBuy:
		return buyQuantity(snap.Cash, f.percent, price, f.lotSize)
	case types.SignalSell, types.SignalClose:
		return -f.partialExit(holding)
	case types.SignalLiquidate, types.SignalHedge:
		return -max(holding, 0)
	case types.SignalRebalance:
		return rebalanceDelta(sig.TargetPct, snap, sig.Symbol, price, f.lotSize)
	default:
		return 0
	}
}

func (f *FixedPercent) explicit(sig types.Signal, snap types.Snapshot, price float64, holding int64) int64 {
	qty := lots(float64(sig.Quantity), f.lotSize)
	switch sig.Type {
	case types.SignalOpen, types.SignalBuy:
		if sig.Type == types.SignalOpen && holding > 0 {
			return 0
		}
		return affordable(qty, price, snap.Cash, f.lotSize)
	case types.SignalSell, types.SignalClose, types.SignalLiquidate, types.SignalHedge:
		if qty > holding {
			qty = lots(float64(holding), f.lotSize)
		}
		return -qty
	default:
		return 0
	}
}

// partialExit sells percent of the holding, lot-aligned. A remainder
// smaller than one lot after the sale is swept so positions can reach
// flat through repeated partial closes.
func (f *FixedPercent) partialExit(holding int64) int64 {
	if holding <= 0 {
		return 0
	}
	qty := lots(float64(holding)*f.percent, f.lotSize)
	if qty > holding {
		qty = holding
	}
	if holding-qty < f.lotSize {
		qty = holding
	}
	return qty
}

// rebalanceDelta sizes the trade that moves the symbol's exposure to
// targetPct of total equity.
func rebalanceDelta(targetPct float64, snap types.Snapshot, symbol string, price float64, lotSize int64) int64 {
	if targetPct < 0 {
		return 0
	}
	holding := snap.Holding(symbol)
	target := lots(snap.Equity()*targetPct/price, lotSize)
	delta := target - holding
	if delta > 0 {
		return affordable(delta, price, snap.Cash, lotSize)
	}
	return delta
}
