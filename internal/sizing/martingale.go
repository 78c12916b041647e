package sizing

import (
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Martingale scales into losing positions. The first entry uses the base
// fraction; each add while a position is open multiplies the fraction by
// the configured multiplier, up to maxDoubles adds. Any exit signal
// liquidates the whole position and resets the level.
//
// Levels are tracked per symbol inside the sizer, so one instance must
// not be shared across runs. The engine constructs a fresh sizer per run.
type Martingale struct {
	basePercent float64
	multiplier  float64
	maxDoubles  int
	lotSize     int64

	levels map[string]int
}

// NewMartingale returns a martingale sizer.
func NewMartingale(basePercent, multiplier float64, maxDoubles int, lotSize int64) *Martingale {
	return &Martingale{
		basePercent: basePercent,
		multiplier:  multiplier,
		maxDoubles:  maxDoubles,
		lotSize:     lotSize,
		levels:      make(map[string]int),
	}
}

// Name implements Sizer.
func (m *Martingale) Name() string { return config.SizingMartingale }

// Level returns the number of adds taken since the symbol was last flat.
func (m *Martingale) Level(symbol string) int { return m.levels[symbol] }

// Size implements Sizer.
func (m *Martingale) Size(sig types.Signal, snap types.Snapshot, price float64) int64 {
	if price <= 0 {
		return 0
	}
	holding := snap.Holding(sig.Symbol)

	switch sig.Type {
	case types.SignalOpen, types.SignalBuy:
		if holding <= 0 {
			// Fresh entry always starts over at the base fraction.
			m.levels[sig.Symbol] = 0
			return buyQuantity(snap.Cash, m.basePercent, price, m.lotSize)
		}
		if sig.Type == types.SignalOpen {
			return 0
		}
		return m.add(sig.Symbol, snap.Cash, price)
	case types.SignalSell, types.SignalClose, types.SignalLiquidate, types.SignalHedge:
		// Martingale exits are always total. A partial exit would leave
		// the level inconsistent with the remaining exposure.
		if holding <= 0 {
			return 0
		}
		delete(m.levels, sig.Symbol)
		return -holding
	default:
		return 0
	}
}

func (m *Martingale) add(symbol string, cash, price float64) int64 {
	level := m.levels[symbol]
	if level >= m.maxDoubles {
		return 0
	}
	fraction := m.basePercent
	for i := 0; i < level; i++ {
		fraction *= m.multiplier
	}
	qty := buyQuantity(cash, fraction, price, m.lotSize)
	if qty > 0 {
		m.levels[symbol] = level + 1
	}
	return qty
}
